package grammar

import (
	"strconv"
	"strings"
)

// Expression is a parsing expression. The set of implementations is closed:
// *Literal, *CharClass, *RuleRef, Sequence, Choice, *ZeroOrMore, *OneOrMore,
// *Optional, *PositiveLookahead and *NegativeLookahead.
//
// String renders the expression in the textual grammar syntax; the result
// doubles as the expectation label reported in diagnostics.
type Expression interface {
	String() string
	isExpression()
}

type (
	// Literal matches Text exactly.
	Literal struct {
		Text string
	}

	// CharClass matches a single character. Any matches every character;
	// otherwise the character must fall into one of Ranges, or into none
	// of them when Negated is set.
	CharClass struct {
		Ranges  []CharRange
		Negated bool
		Any     bool
		// Label overrides the rendered form, typically with the text the
		// class was written as.
		Label string
	}

	// RuleRef matches the named rule.
	RuleRef struct {
		Name  string
		index int
	}

	// Sequence matches its elements in order, all or nothing.
	Sequence []Expression

	// Choice matches the first alternative that succeeds.
	Choice []Expression

	ZeroOrMore struct {
		Body Expression
	}

	OneOrMore struct {
		Body Expression
	}

	Optional struct {
		Body Expression
	}

	// PositiveLookahead succeeds without consuming input if Body matches.
	PositiveLookahead struct {
		Body Expression
	}

	// NegativeLookahead succeeds without consuming input if Body does not match.
	NegativeLookahead struct {
		Body Expression
	}
)

// CharRange is an inclusive range of characters.
type CharRange struct {
	Lo, Hi rune
}

func (*Literal) isExpression()           {}
func (*CharClass) isExpression()         {}
func (*RuleRef) isExpression()           {}
func (Sequence) isExpression()           {}
func (Choice) isExpression()             {}
func (*ZeroOrMore) isExpression()        {}
func (*OneOrMore) isExpression()         {}
func (*Optional) isExpression()          {}
func (*PositiveLookahead) isExpression() {}
func (*NegativeLookahead) isExpression() {}

// Lit returns a literal expression.
func Lit(text string) *Literal {
	return &Literal{Text: text}
}

// Range returns a class matching characters between lo and hi inclusive.
func Range(lo, hi rune) *CharClass {
	return &CharClass{
		Ranges: []CharRange{{Lo: lo, Hi: hi}},
		Label:  strconv.QuoteRune(lo) + ".." + strconv.QuoteRune(hi),
	}
}

// Class returns a class matching any of the given ranges.
func Class(ranges ...CharRange) *CharClass {
	return &CharClass{Ranges: ranges}
}

// Any returns a class matching any single character.
func Any() *CharClass {
	return &CharClass{Any: true}
}

// Ref returns a reference to the named rule.
func Ref(name string) *RuleRef {
	return &RuleRef{Name: name, index: -1}
}

func Seq(exprs ...Expression) Sequence {
	return Sequence(exprs)
}

func Alt(exprs ...Expression) Choice {
	return Choice(exprs)
}

func Star(body Expression) *ZeroOrMore {
	return &ZeroOrMore{Body: body}
}

func Plus(body Expression) *OneOrMore {
	return &OneOrMore{Body: body}
}

func Opt(body Expression) *Optional {
	return &Optional{Body: body}
}

func And(body Expression) *PositiveLookahead {
	return &PositiveLookahead{Body: body}
}

func Not(body Expression) *NegativeLookahead {
	return &NegativeLookahead{Body: body}
}

// Index returns the index of the referenced rule in the grammar that owns
// the reference, or -1 for a reference that did not go through Build.
func (r *RuleRef) Index() int {
	return r.index
}

// Matches reports whether ch belongs to the class.
func (c *CharClass) Matches(ch rune) bool {
	if c.Any {
		return true
	}
	in := false
	for _, r := range c.Ranges {
		if ch >= r.Lo && ch <= r.Hi {
			in = true
			break
		}
	}
	return in != c.Negated
}

func (l *Literal) String() string {
	return strconv.Quote(l.Text)
}

func (c *CharClass) String() string {
	if c.Label != "" {
		return c.Label
	}
	if c.Any {
		return "."
	}
	var b strings.Builder
	b.WriteByte('[')
	if c.Negated {
		b.WriteByte('^')
	}
	for _, r := range c.Ranges {
		writeClassRune(&b, r.Lo)
		if r.Hi != r.Lo {
			b.WriteByte('-')
			writeClassRune(&b, r.Hi)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeClassRune(b *strings.Builder, r rune) {
	switch r {
	case ']', '\\', '-', '^':
		b.WriteByte('\\')
		b.WriteRune(r)
		return
	}
	q := strconv.QuoteRune(r)
	b.WriteString(q[1 : len(q)-1])
}

func (r *RuleRef) String() string {
	return r.Name
}

func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, e := range s {
		if _, ok := e.(Choice); ok {
			parts[i] = "(" + e.String() + ")"
		} else {
			parts[i] = e.String()
		}
	}
	return strings.Join(parts, " ")
}

func (c Choice) String() string {
	parts := make([]string, len(c))
	for i, e := range c {
		parts[i] = e.String()
	}
	return strings.Join(parts, " / ")
}

func (e *ZeroOrMore) String() string { return group(e.Body) + "*" }

func (e *OneOrMore) String() string { return group(e.Body) + "+" }

func (e *Optional) String() string { return group(e.Body) + "?" }

func (e *PositiveLookahead) String() string { return "&" + group(e.Body) }

func (e *NegativeLookahead) String() string { return "!" + group(e.Body) }

func group(e Expression) string {
	switch e := e.(type) {
	case Sequence:
		if len(e) != 1 {
			return "(" + e.String() + ")"
		}
	case Choice:
		if len(e) != 1 {
			return "(" + e.String() + ")"
		}
	}
	return e.String()
}
