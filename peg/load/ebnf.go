package load

import (
	"bytes"
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/pegmatch/peg/grammar"
)

// ebnfRoot names the production added for verification, making the skip
// rules reachable.
const ebnfRoot = "PegmatchRoot"

// loadEBNF converts a grammar in the EBNF of the Go specification.
// Alternatives are tried in the order written. Lexical productions, whose
// names start with a lower-case letter, become atomic rules.
func loadEBNF(name string, data []byte) (*Description, error) {
	g, err := ebnf.Parse(name, bytes.NewReader(data))
	if err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}
	if len(g) == 0 {
		return nil, &SyntaxError{Filename: name, Msg: "no productions defined"}
	}

	prods := make([]*ebnf.Production, 0, len(g))
	for _, p := range g {
		prods = append(prods, p)
	}
	sort.Slice(prods, func(i, j int) bool {
		return prods[i].Pos().Offset < prods[j].Pos().Offset
	})
	start := prods[0].Name.String

	if err := verifyEBNF(g, start); err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}

	d := &Description{Start: start}
	for _, p := range prods {
		expr, err := ebnfExpression(name, p.Expr)
		if err != nil {
			return nil, err
		}
		r := grammar.NewRule(p.Name.String, expr)
		if isLexical(p.Name.String) {
			r.Flags = grammar.Atomic
		}
		d.Rules = append(d.Rules, r)
	}
	return d, nil
}

// verifyEBNF runs ebnf.Verify from a temporary root production that
// references the start production and the skip rules.
func verifyEBNF(g ebnf.Grammar, start string) error {
	root := ebnf.Alternative{&ebnf.Name{String: start}}
	for _, skip := range []string{grammar.Whitespace, grammar.Comment} {
		if _, ok := g[skip]; ok && skip != start {
			root = append(root, &ebnf.Name{String: skip})
		}
	}
	g[ebnfRoot] = &ebnf.Production{Name: &ebnf.Name{String: ebnfRoot}, Expr: root}
	defer delete(g, ebnfRoot)
	return ebnf.Verify(g, ebnfRoot)
}

func isLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(ch)
}

func ebnfExpression(filename string, e ebnf.Expression) (grammar.Expression, error) {
	switch e := e.(type) {
	case nil:
		return grammar.Lit(""), nil
	case *ebnf.Name:
		return grammar.Ref(e.String), nil
	case *ebnf.Token:
		return grammar.Lit(e.String), nil
	case *ebnf.Range:
		lo, err := ebnfRune(filename, e.Begin)
		if err != nil {
			return nil, err
		}
		hi, err := ebnfRune(filename, e.End)
		if err != nil {
			return nil, err
		}
		return grammar.Range(lo, hi), nil
	case *ebnf.Group:
		return ebnfExpression(filename, e.Body)
	case *ebnf.Option:
		body, err := ebnfExpression(filename, e.Body)
		if err != nil {
			return nil, err
		}
		return grammar.Opt(body), nil
	case *ebnf.Repetition:
		body, err := ebnfExpression(filename, e.Body)
		if err != nil {
			return nil, err
		}
		return grammar.Star(body), nil
	case ebnf.Alternative:
		alts := make(grammar.Choice, len(e))
		for i, alt := range e {
			x, err := ebnfExpression(filename, alt)
			if err != nil {
				return nil, err
			}
			alts[i] = x
		}
		return alts, nil
	case ebnf.Sequence:
		seq := make(grammar.Sequence, len(e))
		for i, item := range e {
			x, err := ebnfExpression(filename, item)
			if err != nil {
				return nil, err
			}
			seq[i] = x
		}
		return seq, nil
	case *ebnf.Bad:
		pos := e.Pos()
		return nil, &SyntaxError{Filename: filename, Line: pos.Line, Column: pos.Column, Msg: e.Error}
	}
	return nil, fmt.Errorf("%s: unsupported EBNF expression %T", filename, e)
}

func ebnfRune(filename string, tok *ebnf.Token) (rune, error) {
	ch, size := utf8.DecodeRuneInString(tok.String)
	if size == 0 || size != len(tok.String) {
		pos := tok.Pos()
		return 0, &SyntaxError{
			Filename: filename,
			Line:     pos.Line,
			Column:   pos.Column,
			Msg:      fmt.Sprintf("range bound %q must be a single character", tok.String),
		}
	}
	return ch, nil
}
