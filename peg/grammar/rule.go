package grammar

import "strings"

// Flags control how a rule takes part in tree building.
type Flags uint8

const (
	// Silent rules consume input but never appear in the tree.
	Silent Flags = 1 << iota
	// Atomic rules emit a node without children and suppress implicit
	// skipping between their own elements.
	Atomic
	// Transparent rules splice their children into the enclosing node.
	Transparent
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

func (f Flags) String() string {
	var names []string
	if f.Has(Silent) {
		names = append(names, "silent")
	}
	if f.Has(Atomic) {
		names = append(names, "atomic")
	}
	if f.Has(Transparent) {
		names = append(names, "transparent")
	}
	return strings.Join(names, ",")
}

func (f Flags) valid() bool {
	if f.Has(Transparent) && (f.Has(Silent) || f.Has(Atomic)) {
		return false
	}
	return f&^(Silent|Atomic|Transparent) == 0
}

// Rule is a named expression.
type Rule struct {
	Name  string
	Expr  Expression
	Flags Flags
	// Label, when set, replaces Name in diagnostics. A silent rule with a
	// label is still reported under it.
	Label string
}

// NewRule returns a rule with the given flags.
func NewRule(name string, expr Expression, flags ...Flags) *Rule {
	r := &Rule{Name: name, Expr: expr}
	for _, f := range flags {
		r.Flags |= f
	}
	return r
}

// DisplayName returns the label used for the rule in diagnostics.
func (r *Rule) DisplayName() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}

// String renders the rule in the textual grammar syntax. A rule that is
// both silent and atomic renders with the modifier "_@". The label has no
// textual form and is not rendered.
func (r *Rule) String() string {
	var mod string
	switch {
	case r.Flags.Has(Silent) && r.Flags.Has(Atomic):
		mod = "_@"
	case r.Flags.Has(Silent):
		mod = "_"
	case r.Flags.Has(Atomic):
		mod = "@"
	case r.Flags.Has(Transparent):
		mod = "%"
	}
	return r.Name + " = " + mod + "{ " + r.Expr.String() + " }"
}
