// Package parse matches input text against a grammar.Grammar using packrat
// parsing: recursive descent over parsing expressions with a memo table keyed
// by (rule, offset), so each rule is evaluated at most once per offset and
// matching takes time linear in the input for a fixed grammar.
//
// # Results
//
// Parse never fails on malformed input. It returns a Result that carries
// either the parse tree or a Diagnostic:
//
//	res, err := parse.Parse(g, "4a")
//	if err != nil {
//	    // unknown start rule, or an *EngineFault
//	}
//	if !res.OK() {
//	    fmt.Println(res.Diagnostic) // 1:2: incomplete parse: expected digit or end of input, found 'a'
//	}
//
// The Diagnostic reports the farthest offset any attempt reached together
// with every expectation recorded at that offset. When a non-silent rule
// fails without any of its parts getting past the rule's start, the rule's
// own name (or label) replaces the expectations of its parts. A silent rule
// does the same only when it has a label; the builtin EOI reports "end of
// input" this way. Memoization never changes the Diagnostic: a cached
// outcome replays the expectations its evaluation recorded.
//
// # Trees
//
// Every successful match of a non-silent rule yields a Node with the rule
// name and its byte span. Silent rules yield nothing, transparent rules
// contribute their children, atomic rules yield leaves. The start rule
// always yields the root.
//
// # Concurrency
//
// A parse is synchronous and keeps all of its state (memo table, failure
// tracker) private. Grammars are read-only, so concurrent parses can share
// one. There is no cancellation; callers needing a deadline bound the input
// size.
package parse
