package load

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dhamidi/pegmatch/peg/grammar"
	"github.com/dhamidi/pegmatch/peg/parse"
)

// converter turns parse trees of the textual syntax into rules.
type converter struct {
	filename string
	input    string
	// base shifts reported positions, for expressions embedded in another
	// document.
	baseLine   int
	baseColumn int
}

func loadPEG(name, text string) (*Description, error) {
	res, err := parse.Parse(meta(), text, parse.WithFilename(name))
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, diagnosticError(name, res.Diagnostic, 0, 0)
	}

	c := &converter{filename: name, input: text}
	d := &Description{}
	for _, n := range res.Tree.ChildrenOf(metaRule) {
		r, err := c.rule(n)
		if err != nil {
			return nil, err
		}
		d.Rules = append(d.Rules, r)
	}
	d.Start = d.Rules[0].Name
	return d, nil
}

// parseExpression parses a single expression in the textual syntax.
// line and column locate the expression in its enclosing document.
func parseExpression(name, text string, line, column int) (grammar.Expression, error) {
	res, err := parse.Parse(meta(), text, parse.WithStartRule(metaChoice), parse.WithFilename(name))
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, diagnosticError(name, res.Diagnostic, line, column)
	}
	c := &converter{filename: name, input: text, baseLine: line, baseColumn: column}
	return c.choice(res.Tree)
}

func diagnosticError(name string, d *parse.Diagnostic, line, column int) *SyntaxError {
	e := &SyntaxError{
		Filename:   name,
		Line:       d.Position.Line,
		Column:     d.Position.Column,
		Diagnostic: d,
	}
	e.Line, e.Column = shift(e.Line, e.Column, line, column)
	e.Msg = d.Message()
	return e
}

// shift moves a position inside an embedded text to the enclosing document.
func shift(line, column, baseLine, baseColumn int) (int, int) {
	if baseLine == 0 {
		return line, column
	}
	if line == 1 {
		return baseLine, baseColumn + column - 1
	}
	return baseLine + line - 1, column
}

func (c *converter) errorf(n *parse.Node, format string, args ...any) error {
	pos := parse.NewCursor(c.input).At(n.Span.Start).Position()
	line, column := shift(pos.Line, pos.Column, c.baseLine, c.baseColumn)
	return &SyntaxError{
		Filename: c.filename,
		Line:     line,
		Column:   column,
		Msg:      fmt.Sprintf(format, args...),
	}
}

func (c *converter) rule(n *parse.Node) (*grammar.Rule, error) {
	r := &grammar.Rule{Name: n.FirstChild(metaName).Text(c.input)}
	if mod := n.FirstChild(metaModifier); mod != nil {
		switch mod.Text(c.input) {
		case "_":
			r.Flags = grammar.Silent
		case "_@":
			r.Flags = grammar.Silent | grammar.Atomic
		case "@":
			r.Flags = grammar.Atomic
		case "%":
			r.Flags = grammar.Transparent
		}
	}
	expr, err := c.choice(n.FirstChild(metaChoice))
	if err != nil {
		return nil, err
	}
	r.Expr = expr
	return r, nil
}

func (c *converter) choice(n *parse.Node) (grammar.Expression, error) {
	var alts grammar.Choice
	for _, seq := range n.Children {
		e, err := c.sequence(seq)
		if err != nil {
			return nil, err
		}
		alts = append(alts, e)
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return alts, nil
}

func (c *converter) sequence(n *parse.Node) (grammar.Expression, error) {
	var items grammar.Sequence
	for _, child := range n.Children {
		e, err := c.prefixed(child)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return items, nil
}

func (c *converter) prefixed(n *parse.Node) (grammar.Expression, error) {
	e, err := c.suffixed(n.FirstChild(metaSuffixed))
	if err != nil {
		return nil, err
	}
	if pred := n.FirstChild(metaPredicate); pred != nil {
		if pred.Text(c.input) == "&" {
			return grammar.And(e), nil
		}
		return grammar.Not(e), nil
	}
	return e, nil
}

func (c *converter) suffixed(n *parse.Node) (grammar.Expression, error) {
	e, err := c.primary(n.Children[0])
	if err != nil {
		return nil, err
	}
	if suffix := n.FirstChild(metaSuffix); suffix != nil {
		switch suffix.Text(c.input) {
		case "*":
			return grammar.Star(e), nil
		case "+":
			return grammar.Plus(e), nil
		case "?":
			return grammar.Opt(e), nil
		}
	}
	return e, nil
}

func (c *converter) primary(n *parse.Node) (grammar.Expression, error) {
	switch n.Rule {
	case metaChoice:
		return c.choice(n)
	case metaLiteral:
		text, err := strconv.Unquote(n.Text(c.input))
		if err != nil {
			return nil, c.errorf(n, "invalid string literal %s", n.Text(c.input))
		}
		return grammar.Lit(text), nil
	case metaChar:
		ch, err := c.char(n)
		if err != nil {
			return nil, err
		}
		return grammar.Lit(string(ch)), nil
	case metaRange:
		lo, err := c.char(n.Children[0])
		if err != nil {
			return nil, err
		}
		hi, err := c.char(n.Children[1])
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, c.errorf(n, "empty range %s", n.Text(c.input))
		}
		return grammar.Range(lo, hi), nil
	case metaClass:
		return c.class(n)
	case metaAny:
		return grammar.Any(), nil
	case metaReference:
		return grammar.Ref(n.Text(c.input)), nil
	}
	return nil, c.errorf(n, "unexpected %s", n.Rule)
}

func (c *converter) char(n *parse.Node) (rune, error) {
	text := n.Text(c.input)
	s, err := strconv.Unquote(text)
	if err != nil {
		return 0, c.errorf(n, "invalid character literal %s", text)
	}
	ch, size := utf8.DecodeRuneInString(s)
	if size != len(s) || size == 0 {
		return 0, c.errorf(n, "character literal %s must hold one character", text)
	}
	return ch, nil
}

// class decodes a bracket expression such as [a-z_] or [^"\\].
func (c *converter) class(n *parse.Node) (grammar.Expression, error) {
	text := n.Text(c.input)
	body := text[1 : len(text)-1]
	cls := &grammar.CharClass{}
	if strings.HasPrefix(body, "^") {
		cls.Negated = true
		body = body[1:]
	}

	for body != "" {
		lo, rest, err := classRune(body)
		if err != nil {
			return nil, c.errorf(n, "invalid character class %s: %v", text, err)
		}
		hi := lo
		if len(rest) > 1 && rest[0] == '-' {
			if hi, rest, err = classRune(rest[1:]); err != nil {
				return nil, c.errorf(n, "invalid character class %s: %v", text, err)
			}
			if lo > hi {
				return nil, c.errorf(n, "invalid character class %s: empty range", text)
			}
		}
		cls.Ranges = append(cls.Ranges, grammar.CharRange{Lo: lo, Hi: hi})
		body = rest
	}
	if len(cls.Ranges) == 0 {
		return nil, c.errorf(n, "empty character class %s", text)
	}
	return cls, nil
}

func classRune(s string) (rune, string, error) {
	if len(s) >= 2 && s[0] == '\\' {
		switch s[1] {
		case ']', '\\', '-', '^', '"', '\'':
			return rune(s[1]), s[2:], nil
		}
	}
	r, _, tail, err := strconv.UnquoteChar(s, 0)
	return r, tail, err
}
