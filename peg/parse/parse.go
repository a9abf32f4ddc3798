package parse

import (
	"github.com/dhamidi/pegmatch/peg/grammar"
)

// Option configures a single Parse call.
type Option func(*config)

type config struct {
	start    string
	filename string
	partial  bool
	memoize  bool
}

// WithStartRule matches the named rule instead of the grammar's start rule.
func WithStartRule(name string) Option {
	return func(c *config) {
		c.start = name
	}
}

// WithFilename sets the file name reported in diagnostic positions.
func WithFilename(name string) Option {
	return func(c *config) {
		c.filename = name
	}
}

// WithPartial accepts a match of the start rule that leaves input unconsumed.
func WithPartial() Option {
	return func(c *config) {
		c.partial = true
	}
}

// WithoutMemo disables the memo table. Results are identical; only the
// amount of work changes.
func WithoutMemo() Option {
	return func(c *config) {
		c.memoize = false
	}
}

// Result is the outcome of a parse: a tree when the input matched, a
// diagnostic otherwise.
type Result struct {
	Tree       *Node
	Diagnostic *Diagnostic
	Input      string
	Filename   string
	Stats      Stats
}

// OK reports whether the input matched.
func (r *Result) OK() bool {
	return r.Tree != nil
}

// Text returns the input spanned by n.
func (r *Result) Text(n *Node) string {
	return n.Text(r.Input)
}

// Position returns the line and column of a byte offset in the input.
func (r *Result) Position(offset int) Position {
	pos := NewCursor(r.Input).At(offset).Position()
	pos.Filename = r.Filename
	return pos
}

// Parse matches input against g.
//
// Malformed input is not an error: the returned Result then carries a
// Diagnostic. The error return is reserved for an unknown start rule given
// with WithStartRule and for an *EngineFault.
//
// Parse only reads g, so any number of parses may share one grammar.
func Parse(g *grammar.Grammar, input string, opts ...Option) (res *Result, err error) {
	cfg := config{memoize: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.start != "" {
		if g, err = g.WithStart(cfg.start); err != nil {
			return nil, err
		}
	}

	m := newMatcher(g, input, cfg.memoize)
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*EngineFault)
			if !ok {
				panic(r)
			}
			res, err = nil, fault
		}
	}()

	res = &Result{Input: input, Filename: cfg.filename}

	start := m.skipTrivia(0)
	end, nodes, ok := m.evalRule(g.StartIndex(), start, true)
	switch {
	case !ok:
		res.Diagnostic = m.diagnostic(UnexpectedInput, cfg.filename)
	case cfg.partial:
		res.Tree = nodes[0]
	default:
		if rest := m.skipTrivia(end); rest < len(input) {
			m.track.force(rest, grammar.EndOfInputLabel)
			res.Diagnostic = m.diagnostic(IncompleteParse, cfg.filename)
		} else {
			res.Tree = nodes[0]
		}
	}

	res.Stats = m.stats
	if m.memo != nil {
		res.Stats.MemoEntries = m.memo.len()
	}
	return res, nil
}
