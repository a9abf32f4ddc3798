package parse

import "encoding/json"

type jsonNode struct {
	Rule     string      `json:"rule"`
	Start    int         `json:"start"`
	End      int         `json:"end"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonDiagnostic struct {
	Kind     string   `json:"kind"`
	File     string   `json:"file,omitempty"`
	Offset   int      `json:"offset"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Expected []string `json:"expected"`
	Found    string   `json:"found"`
	Message  string   `json:"message"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

func (n *Node) toJSON() *jsonNode {
	jn := &jsonNode{
		Rule:  n.Rule,
		Start: n.Span.Start,
		End:   n.Span.End,
	}
	if len(n.Children) > 0 {
		jn.Children = make([]*jsonNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = child.toJSON()
		}
	}
	return jn
}

func (d *Diagnostic) MarshalJSON() ([]byte, error) {
	expected := d.Expected
	if expected == nil {
		expected = []string{}
	}
	return json.Marshal(jsonDiagnostic{
		Kind:     d.Kind.String(),
		File:     d.Position.Filename,
		Offset:   d.Position.Offset,
		Line:     d.Position.Line,
		Column:   d.Position.Column,
		Expected: expected,
		Found:    d.Found,
		Message:  d.Error(),
	})
}
