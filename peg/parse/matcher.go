package parse

import (
	"fmt"

	"github.com/dhamidi/pegmatch/peg/grammar"
)

// EngineFault reports a broken matching invariant, such as a repetition
// whose body matched the empty string. It signals a defect in the grammar
// or the engine and is never the result of bad input.
type EngineFault struct {
	Rule   string
	Offset int
	Reason string
}

func (f *EngineFault) Error() string {
	return fmt.Sprintf("engine fault in rule %q at offset %d: %s", f.Rule, f.Offset, f.Reason)
}

// Stats counts the work done by one parse.
type Stats struct {
	Evaluations int // rule bodies evaluated
	MemoHits    int
	MemoMisses  int
	MemoEntries int
}

// matcher is a packrat evaluator for one input. It is not safe for
// concurrent use; each parse creates its own.
type matcher struct {
	g       *grammar.Grammar
	src     Cursor
	memo    *memoTable
	track   tracker
	skip    []int
	current int
	stats   Stats
}

func newMatcher(g *grammar.Grammar, input string, memoize bool) *matcher {
	m := &matcher{
		g:       g,
		src:     NewCursor(input),
		track:   newTracker(),
		skip:    g.SkipRules(),
		current: g.StartIndex(),
	}
	if memoize {
		m.memo = newMemoTable()
	}
	return m
}

func (m *matcher) fault(offset int, format string, args ...any) {
	panic(&EngineFault{
		Rule:   m.g.RuleAt(m.current).Name,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	})
}

// rule matches rule idx at offset, going through the memo table. The rule
// records its failures into a fresh tracker, merged into the caller's when
// the caller is not quiet.
func (m *matcher) rule(idx, offset int) (int, []*Node, bool) {
	key := memoKey{rule: idx, offset: offset}
	if m.memo != nil {
		if e, ok := m.memo.get(key); ok {
			m.stats.MemoHits++
			m.track.merge(e.track)
			return e.end, e.nodes, e.ok
		}
		m.stats.MemoMisses++
	}

	outer := m.track
	m.track = newTracker()
	end, nodes, ok := m.evalRule(idx, offset, false)
	track := m.track
	m.track = outer
	m.track.merge(track)

	if m.memo != nil {
		m.memo.put(key, memoEntry{end: end, nodes: nodes, ok: ok, track: track})
	}
	return end, nodes, ok
}

// evalRule evaluates the body of rule idx. A root rule always yields its
// own node, whatever its flags.
func (m *matcher) evalRule(idx, offset int, root bool) (int, []*Node, bool) {
	r := m.g.RuleAt(idx)
	m.stats.Evaluations++

	prev := m.current
	m.current = idx
	end, children, ok := m.eval(r.Expr, offset, r.Flags.Has(grammar.Atomic) || m.isSkip(idx))
	m.current = prev

	if !ok {
		if root || reported(r) {
			m.track.fail(offset, r.DisplayName())
		}
		return offset, nil, false
	}
	if root {
		n := &Node{Rule: r.Name, Span: Span{Start: offset, End: end}}
		if !r.Flags.Has(grammar.Atomic) {
			n.Children = children
		}
		return end, []*Node{n}, true
	}
	return end, build(r, offset, end, children), true
}

// reported reports whether a failing rule replaces its body's expectations
// with its own label. Silent rules only do when they carry a label, like
// the builtin EOI.
func reported(r *grammar.Rule) bool {
	return !r.Flags.Has(grammar.Silent) || r.Label != ""
}

// isSkip reports whether rule idx is a skip rule. Skip rules never skip
// inside themselves.
func (m *matcher) isSkip(idx int) bool {
	for _, i := range m.skip {
		if i == idx {
			return true
		}
	}
	return false
}

// skipTrivia matches the skip rules as often as possible, silently.
func (m *matcher) skipTrivia(offset int) int {
	if len(m.skip) == 0 {
		return offset
	}
	m.track.quiet++
	for {
		advanced := false
		for _, idx := range m.skip {
			if end, _, ok := m.rule(idx, offset); ok && end > offset {
				offset = end
				advanced = true
			}
		}
		if !advanced {
			break
		}
	}
	m.track.quiet--
	return offset
}

// eval matches e at offset. atomic is set while evaluating the body of an
// atomic rule and disables implicit skipping.
func (m *matcher) eval(e grammar.Expression, offset int, atomic bool) (int, []*Node, bool) {
	switch e := e.(type) {
	case *grammar.Literal:
		if m.src.At(offset).HasPrefix(e.Text) {
			return offset + len(e.Text), nil, true
		}
		if m.track.wants(offset) {
			m.track.record(offset, e.String())
		}
		return offset, nil, false

	case *grammar.CharClass:
		ch, w := m.src.At(offset).Peek()
		if w > 0 && e.Matches(ch) {
			return offset + w, nil, true
		}
		if m.track.wants(offset) {
			m.track.record(offset, e.String())
		}
		return offset, nil, false

	case *grammar.RuleRef:
		return m.rule(e.Index(), offset)

	case grammar.Sequence:
		var nodes []*Node
		pos := offset
		for i, sub := range e {
			if i > 0 && !atomic {
				pos = m.skipTrivia(pos)
			}
			end, ns, ok := m.eval(sub, pos, atomic)
			if !ok {
				return offset, nil, false
			}
			nodes = append(nodes, ns...)
			pos = end
		}
		return pos, nodes, true

	case grammar.Choice:
		for _, alt := range e {
			if end, ns, ok := m.eval(alt, offset, atomic); ok {
				return end, ns, true
			}
		}
		return offset, nil, false

	case *grammar.ZeroOrMore:
		return m.repeat(e.Body, offset, atomic, 0)

	case *grammar.OneOrMore:
		return m.repeat(e.Body, offset, atomic, 1)

	case *grammar.Optional:
		if end, ns, ok := m.eval(e.Body, offset, atomic); ok {
			return end, ns, true
		}
		return offset, nil, true

	case *grammar.PositiveLookahead:
		_, _, ok := m.eval(e.Body, offset, atomic)
		return offset, nil, ok

	case *grammar.NegativeLookahead:
		m.track.quiet++
		_, _, ok := m.eval(e.Body, offset, atomic)
		m.track.quiet--
		return offset, nil, !ok
	}
	m.fault(offset, "unknown expression type %T", e)
	return offset, nil, false
}

func (m *matcher) repeat(body grammar.Expression, offset int, atomic bool, min int) (int, []*Node, bool) {
	var nodes []*Node
	pos := offset
	count := 0
	for {
		next := pos
		if count > 0 && !atomic {
			next = m.skipTrivia(pos)
		}
		end, ns, ok := m.eval(body, next, atomic)
		if !ok {
			break
		}
		if end == next {
			m.fault(next, "repeated expression %s matched the empty string", body)
		}
		nodes = append(nodes, ns...)
		pos = end
		count++
	}
	if count < min {
		return offset, nil, false
	}
	return pos, nodes, true
}
