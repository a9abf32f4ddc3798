package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/pegmatch/peg/parse"
)

type JSONEncoder struct {
	w   io.Writer
	res *parse.Result
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(res *parse.Result) error {
	e.res = res
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	if _, err = e.w.Write(text); err != nil {
		return err
	}
	_, err = io.WriteString(e.w, "\n")
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.buildResultData(), "", "  ")
}

type jsonResult struct {
	File       string          `json:"file,omitempty"`
	OK         bool            `json:"ok"`
	Tree       *jsonNode       `json:"tree,omitempty"`
	Diagnostic *jsonDiagnostic `json:"diagnostic,omitempty"`
	Stats      jsonStats       `json:"stats"`
}

type jsonNode struct {
	Rule     string      `json:"rule"`
	Span     jsonSpan    `json:"span"`
	Text     string      `json:"text,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonSpan struct {
	Start jsonPosition `json:"start"`
	End   jsonPosition `json:"end"`
}

type jsonPosition struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonDiagnostic struct {
	Kind     string       `json:"kind"`
	Position jsonPosition `json:"position"`
	Message  string       `json:"message"`
	Expected []string     `json:"expected,omitempty"`
	Found    string       `json:"found"`
}

type jsonStats struct {
	Evaluations int `json:"evaluations"`
	MemoHits    int `json:"memoHits"`
	MemoMisses  int `json:"memoMisses"`
}

func (e *JSONEncoder) buildResultData() jsonResult {
	res := e.res
	data := jsonResult{
		File: res.Filename,
		OK:   res.OK(),
		Stats: jsonStats{
			Evaluations: res.Stats.Evaluations,
			MemoHits:    res.Stats.MemoHits,
			MemoMisses:  res.Stats.MemoMisses,
		},
	}
	if res.Tree != nil {
		data.Tree = e.nodeToJSON(newLineIndex(res.Input), res.Tree)
	}
	if d := res.Diagnostic; d != nil {
		data.Diagnostic = &jsonDiagnostic{
			Kind: d.Kind.String(),
			Position: jsonPosition{
				Offset: d.Position.Offset,
				Line:   d.Position.Line,
				Column: d.Position.Column,
			},
			Message:  d.Error(),
			Expected: d.Expected,
			Found:    d.Found,
		}
	}
	return data
}

func (e *JSONEncoder) nodeToJSON(idx *lineIndex, n *parse.Node) *jsonNode {
	jn := &jsonNode{
		Rule: n.Rule,
		Span: jsonSpan{
			Start: jsonPositionAt(idx, n.Span.Start),
			End:   jsonPositionAt(idx, n.Span.End),
		},
	}

	if len(n.Children) == 0 {
		jn.Text = e.res.Text(n)
		return jn
	}

	jn.Children = make([]*jsonNode, len(n.Children))
	for i, child := range n.Children {
		jn.Children[i] = e.nodeToJSON(idx, child)
	}
	return jn
}

func jsonPositionAt(idx *lineIndex, offset int) jsonPosition {
	line, column := idx.position(offset)
	return jsonPosition{Offset: offset, Line: line, Column: column}
}
