// Package grammar defines parsing expression grammars (PEGs): the closed set
// of expression combinators, rules with their tree-building flags, and the
// validated, immutable Grammar value consumed by package parse.
//
// # Expressions
//
// Expressions form a closed variant:
//
//	"abc"        *Literal            exact text
//	[a-z] 'a'..'z' .   *CharClass    one character
//	name         *RuleRef            another rule
//	a b c        Sequence            all in order, or nothing
//	a / b        Choice              first alternative that matches
//	e*  e+  e?   *ZeroOrMore, *OneOrMore, *Optional
//	&e  !e       *PositiveLookahead, *NegativeLookahead (zero width)
//
// Code that inspects expressions uses an exhaustive type switch over these
// types; there is no open extension point.
//
// # Building
//
// Build resolves every rule reference to an index, adds the builtin EOI rule
// and rejects grammars that cannot be matched safely:
//
//	g, err := grammar.Build([]*grammar.Rule{
//	    grammar.NewRule("number", grammar.Plus(grammar.Ref("digit"))),
//	    grammar.NewRule("digit", grammar.Range('0', '9')),
//	}, "number")
//
// Configuration errors are reported as Errors, a list of *Error with a Kind
// such as UndefinedRuleReference or LeftRecursion.
//
// # Flags
//
// Silent rules consume input without producing nodes. Atomic rules produce a
// leaf node and disable implicit skipping of the WHITESPACE and COMMENT rules
// between their elements. Transparent rules splice their children into the
// enclosing node.
package grammar
