package parse

import (
	"strconv"
	"strings"

	"github.com/dhamidi/pegmatch/peg/grammar"
)

// Span is a half-open range [Start, End) of byte offsets.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Node is a node of the parse tree: one successful match of a rule.
type Node struct {
	Rule     string
	Span     Span
	Children []*Node
}

// FirstChild returns the first child matched by the named rule.
func (n *Node) FirstChild(rule string) *Node {
	for _, child := range n.Children {
		if child.Rule == rule {
			return child
		}
	}
	return nil
}

// ChildrenOf returns the children matched by the named rule.
func (n *Node) ChildrenOf(rule string) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Rule == rule {
			result = append(result, child)
		}
	}
	return result
}

// Walk calls fn for n and its descendants in depth-first order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Text returns the part of input the node spans.
func (n *Node) Text(input string) string {
	return input[n.Span.Start:n.Span.End]
}

func (n *Node) String() string {
	var b strings.Builder
	n.writeIndent(&b, 0, "")
	return b.String()
}

// StringWithText renders the tree with the matched text of every leaf.
func (n *Node) StringWithText(input string) string {
	var b strings.Builder
	n.writeIndent(&b, 0, input)
	return b.String()
}

func (n *Node) writeIndent(b *strings.Builder, indent int, input string) {
	for i := 0; i < indent; i++ {
		b.WriteString("  ")
	}
	b.WriteString(n.Rule)
	b.WriteString(" [")
	b.WriteString(strconv.Itoa(n.Span.Start))
	b.WriteString("-")
	b.WriteString(strconv.Itoa(n.Span.End))
	b.WriteString("]")
	if input != "" && len(n.Children) == 0 {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(n.Text(input)))
	}
	b.WriteString("\n")

	for _, child := range n.Children {
		child.writeIndent(b, indent+1, input)
	}
}

// build turns a successful match of r over [start, end) into the fragment
// it contributes to the enclosing node.
func build(r *grammar.Rule, start, end int, children []*Node) []*Node {
	switch {
	case r.Flags.Has(grammar.Silent):
		return nil
	case r.Flags.Has(grammar.Transparent):
		return children
	case r.Flags.Has(grammar.Atomic):
		return []*Node{{Rule: r.Name, Span: Span{Start: start, End: end}}}
	}
	return []*Node{{Rule: r.Name, Span: Span{Start: start, End: end}, Children: children}}
}
