package grammar

import "strings"

// analyze runs the static checks that keep matching from looping forever:
// no repetition of a nullable expression and no left recursion.
func (g *Grammar) analyze(errs *Errors) {
	g.nullable = make([]bool, len(g.rules))
	for changed := true; changed; {
		changed = false
		for i, r := range g.rules {
			if !g.nullable[i] && g.isNullable(r.Expr) {
				g.nullable[i] = true
				changed = true
			}
		}
	}

	for _, r := range g.rules {
		g.checkRepetitions(r, r.Expr, errs)
	}
	for _, i := range g.skip {
		if g.nullable[i] {
			*errs = append(*errs, &Error{
				Kind:   ZeroWidthRepetition,
				Rule:   g.rules[i].Name,
				Detail: "skip rules are repeated implicitly and must consume input",
			})
		}
	}

	g.checkLeftRecursion(errs)
}

func (g *Grammar) isNullable(e Expression) bool {
	switch e := e.(type) {
	case *Literal:
		return e.Text == ""
	case *CharClass:
		return false
	case *RuleRef:
		return g.nullable[e.index]
	case Sequence:
		for _, sub := range e {
			if !g.isNullable(sub) {
				return false
			}
		}
		return true
	case Choice:
		for _, sub := range e {
			if g.isNullable(sub) {
				return true
			}
		}
		return false
	case *OneOrMore:
		return g.isNullable(e.Body)
	case *ZeroOrMore, *Optional, *PositiveLookahead, *NegativeLookahead:
		return true
	}
	return false
}

func (g *Grammar) checkRepetitions(r *Rule, e Expression, errs *Errors) {
	switch e := e.(type) {
	case Sequence:
		for _, sub := range e {
			g.checkRepetitions(r, sub, errs)
		}
	case Choice:
		for _, sub := range e {
			g.checkRepetitions(r, sub, errs)
		}
	case *ZeroOrMore:
		g.checkRepeatedBody(r, e.Body, errs)
	case *OneOrMore:
		g.checkRepeatedBody(r, e.Body, errs)
	case *Optional:
		g.checkRepetitions(r, e.Body, errs)
	case *PositiveLookahead:
		g.checkRepetitions(r, e.Body, errs)
	case *NegativeLookahead:
		g.checkRepetitions(r, e.Body, errs)
	}
}

func (g *Grammar) checkRepeatedBody(r *Rule, body Expression, errs *Errors) {
	if g.isNullable(body) {
		*errs = append(*errs, &Error{Kind: ZeroWidthRepetition, Rule: r.Name, Detail: body.String()})
		return
	}
	g.checkRepetitions(r, body, errs)
}

// leftCalls collects the rules e may invoke before consuming any input.
func (g *Grammar) leftCalls(e Expression, out map[int]bool) {
	switch e := e.(type) {
	case *RuleRef:
		out[e.index] = true
	case Sequence:
		for _, sub := range e {
			g.leftCalls(sub, out)
			if !g.isNullable(sub) {
				return
			}
		}
	case Choice:
		for _, sub := range e {
			g.leftCalls(sub, out)
		}
	case *ZeroOrMore:
		g.leftCalls(e.Body, out)
	case *OneOrMore:
		g.leftCalls(e.Body, out)
	case *Optional:
		g.leftCalls(e.Body, out)
	case *PositiveLookahead:
		g.leftCalls(e.Body, out)
	case *NegativeLookahead:
		g.leftCalls(e.Body, out)
	}
}

func (g *Grammar) checkLeftRecursion(errs *Errors) {
	calls := make([][]int, len(g.rules))
	for i, r := range g.rules {
		set := make(map[int]bool)
		g.leftCalls(r.Expr, set)
		// Keep definition order so reported cycles are stable.
		for j := range g.rules {
			if set[j] {
				calls[i] = append(calls[i], j)
			}
		}
	}

	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(g.rules))
	reported := make([]bool, len(g.rules))
	var stack []int

	var visit func(i int)
	visit = func(i int) {
		state[i] = active
		stack = append(stack, i)
		for _, j := range calls[i] {
			switch state[j] {
			case unvisited:
				visit(j)
			case active:
				if reported[j] {
					continue
				}
				reported[j] = true
				var cycle []string
				for k := len(stack) - 1; k >= 0; k-- {
					if stack[k] == j {
						for _, idx := range stack[k:] {
							cycle = append(cycle, g.rules[idx].Name)
						}
						break
					}
				}
				cycle = append(cycle, g.rules[j].Name)
				*errs = append(*errs, &Error{
					Kind:   LeftRecursion,
					Rule:   g.rules[j].Name,
					Detail: strings.Join(cycle, " -> "),
				})
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = done
	}
	for i := range g.rules {
		if state[i] == unvisited {
			visit(i)
		}
	}
}
