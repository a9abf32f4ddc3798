package grammar

import "fmt"

// Names with special meaning.
const (
	// EOI is the builtin end-of-input rule, added unless the rule set
	// defines its own.
	EOI = "EOI"
	// Whitespace and Comment name the skip rules. When a grammar defines
	// either, they are matched silently between the elements of every
	// non-atomic rule.
	Whitespace = "WHITESPACE"
	Comment    = "COMMENT"
)

// EndOfInputLabel is the expectation reported when input should have ended.
const EndOfInputLabel = "end of input"

// Grammar is a validated, immutable set of rules with a designated start
// rule. A Grammar is safe for concurrent use by any number of parses.
//
// Rules and expressions reachable from a Grammar must not be modified.
type Grammar struct {
	rules    []*Rule
	index    map[string]int
	start    int
	skip     []int
	nullable []bool
}

// Build validates rules and returns the grammar that starts at the named
// rule. The expressions are copied, so later changes to rules do not
// affect the returned grammar.
//
// All configuration errors found are returned together as Errors.
func Build(rules []*Rule, start string) (*Grammar, error) {
	var errs Errors
	g := &Grammar{index: make(map[string]int, len(rules)+1)}

	for _, r := range rules {
		switch {
		case r == nil:
			continue
		case r.Name == "":
			errs = append(errs, &Error{Kind: EmptyRuleName})
			continue
		case r.Expr == nil:
			errs = append(errs, &Error{Kind: NilExpression, Rule: r.Name})
		}
		if _, dup := g.index[r.Name]; dup {
			errs = append(errs, &Error{Kind: DuplicateRuleName, Name: r.Name})
			continue
		}
		if !r.Flags.valid() {
			errs = append(errs, &Error{Kind: InvalidFlags, Rule: r.Name, Detail: r.Flags.String()})
		}
		g.index[r.Name] = len(g.rules)
		g.rules = append(g.rules, &Rule{Name: r.Name, Expr: r.Expr, Flags: r.Flags, Label: r.Label})
	}

	if _, ok := g.index[EOI]; !ok {
		g.index[EOI] = len(g.rules)
		g.rules = append(g.rules, &Rule{
			Name:  EOI,
			Expr:  Not(Any()),
			Flags: Silent,
			Label: EndOfInputLabel,
		})
	}

	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name
	}
	for _, r := range g.rules {
		if r.Expr == nil {
			continue
		}
		r.Expr = g.resolve(r, r.Expr, names, &errs)
	}

	if i, ok := g.index[start]; ok {
		g.start = i
	} else {
		e := &Error{Kind: NoSuchStartRule, Name: start}
		if s := suggest(start, names); s != "" && start != "" {
			e.Detail = fmt.Sprintf("did you mean %q?", s)
		}
		errs = append(errs, e)
	}

	for _, name := range []string{Whitespace, Comment} {
		if i, ok := g.index[name]; ok {
			g.skip = append(g.skip, i)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	g.analyze(&errs)
	if len(errs) > 0 {
		return nil, errs
	}
	return g, nil
}

// resolve copies e, binding every rule reference to its rule index.
func (g *Grammar) resolve(r *Rule, e Expression, names []string, errs *Errors) Expression {
	switch e := e.(type) {
	case *Literal:
		return &Literal{Text: e.Text}
	case *CharClass:
		c := *e
		c.Ranges = append([]CharRange(nil), e.Ranges...)
		return &c
	case *RuleRef:
		i, ok := g.index[e.Name]
		if !ok {
			err := &Error{Kind: UndefinedRuleReference, Rule: r.Name, Name: e.Name}
			if s := suggest(e.Name, names); s != "" {
				err.Detail = fmt.Sprintf("did you mean %q?", s)
			}
			*errs = append(*errs, err)
			i = -1
		}
		return &RuleRef{Name: e.Name, index: i}
	case Sequence:
		out := make(Sequence, len(e))
		for i, sub := range e {
			out[i] = g.resolve(r, sub, names, errs)
		}
		return out
	case Choice:
		out := make(Choice, len(e))
		for i, sub := range e {
			out[i] = g.resolve(r, sub, names, errs)
		}
		return out
	case *ZeroOrMore:
		return &ZeroOrMore{Body: g.resolve(r, e.Body, names, errs)}
	case *OneOrMore:
		return &OneOrMore{Body: g.resolve(r, e.Body, names, errs)}
	case *Optional:
		return &Optional{Body: g.resolve(r, e.Body, names, errs)}
	case *PositiveLookahead:
		return &PositiveLookahead{Body: g.resolve(r, e.Body, names, errs)}
	case *NegativeLookahead:
		return &NegativeLookahead{Body: g.resolve(r, e.Body, names, errs)}
	}
	*errs = append(*errs, &Error{Kind: NilExpression, Rule: r.Name})
	return Seq()
}

// Start returns the start rule.
func (g *Grammar) Start() *Rule {
	return g.rules[g.start]
}

// StartIndex returns the index of the start rule.
func (g *Grammar) StartIndex() int {
	return g.start
}

// WithStart returns a grammar sharing g's rules that starts at the named rule.
func (g *Grammar) WithStart(name string) (*Grammar, error) {
	i, ok := g.index[name]
	if !ok {
		e := &Error{Kind: NoSuchStartRule, Name: name}
		if s := suggest(name, g.Names()); s != "" && name != "" {
			e.Detail = fmt.Sprintf("did you mean %q?", s)
		}
		return nil, e
	}
	c := *g
	c.start = i
	return &c, nil
}

// Rule returns the named rule.
func (g *Grammar) Rule(name string) (*Rule, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.rules[i], true
}

// RuleAt returns the rule with index i.
func (g *Grammar) RuleAt(i int) *Rule {
	return g.rules[i]
}

// Len returns the number of rules, builtins included.
func (g *Grammar) Len() int {
	return len(g.rules)
}

// Rules returns the rules in definition order, builtins last.
func (g *Grammar) Rules() []*Rule {
	return append([]*Rule(nil), g.rules...)
}

// Names returns the rule names in definition order.
func (g *Grammar) Names() []string {
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name
	}
	return names
}

// SkipRules returns the indices of the skip rules.
func (g *Grammar) SkipRules() []int {
	return append([]int(nil), g.skip...)
}

// Nullable reports whether the named rule can succeed without consuming input.
func (g *Grammar) Nullable(name string) bool {
	i, ok := g.index[name]
	return ok && g.nullable[i]
}
