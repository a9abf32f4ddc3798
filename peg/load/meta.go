package load

import (
	"sync"

	peg "github.com/dhamidi/pegmatch/peg/grammar"
)

// Rule names of the textual syntax.
const (
	metaGrammar   = "grammar"
	metaRule      = "rule"
	metaName      = "name"
	metaModifier  = "modifier"
	metaChoice    = "choice"
	metaSequence  = "sequence"
	metaPrefixed  = "prefixed"
	metaPredicate = "predicate"
	metaSuffixed  = "suffixed"
	metaSuffix    = "suffix"
	metaLiteral   = "literal"
	metaRange     = "range"
	metaChar      = "char"
	metaClass     = "class"
	metaAny       = "any"
	metaReference = "reference"
)

// meta returns the grammar of the textual syntax. It is built on first use
// and shared by every load; grammars are read-only.
var meta = sync.OnceValue(func() *peg.Grammar {
	identStart := peg.Alt(peg.Range('a', 'z'), peg.Range('A', 'Z'), peg.Lit("_"))
	identChar := peg.Alt(peg.Range('a', 'z'), peg.Range('A', 'Z'), peg.Range('0', '9'), peg.Lit("_"))

	rules := []*peg.Rule{
		peg.NewRule(metaGrammar, peg.Plus(peg.Ref(metaRule))),
		peg.NewRule(metaRule, peg.Seq(
			peg.Ref(metaName), peg.Lit("="), peg.Opt(peg.Ref(metaModifier)),
			peg.Lit("{"), peg.Ref(metaChoice), peg.Lit("}"),
		)),
		peg.NewRule(metaName, peg.Seq(identStart, peg.Star(identChar)), peg.Atomic),
		peg.NewRule(metaModifier, peg.Alt(peg.Lit("_@"), peg.Lit("_"), peg.Lit("@"), peg.Lit("%")), peg.Atomic),

		peg.NewRule(metaChoice, peg.Seq(
			peg.Ref(metaSequence),
			peg.Star(peg.Seq(peg.Lit("/"), peg.Ref(metaSequence))),
		)),
		peg.NewRule(metaSequence, peg.Plus(peg.Ref(metaPrefixed))),
		peg.NewRule(metaPrefixed, peg.Seq(peg.Opt(peg.Ref(metaPredicate)), peg.Ref(metaSuffixed))),
		peg.NewRule(metaPredicate, peg.Alt(peg.Lit("&"), peg.Lit("!")), peg.Atomic),
		peg.NewRule(metaSuffixed, peg.Seq(peg.Ref("primary"), peg.Opt(peg.Ref(metaSuffix)))),
		peg.NewRule(metaSuffix, peg.Alt(peg.Lit("*"), peg.Lit("+"), peg.Lit("?")), peg.Atomic),
		{
			Name: "primary",
			Expr: peg.Alt(
				peg.Ref("group"), peg.Ref(metaLiteral), peg.Ref(metaRange), peg.Ref(metaChar),
				peg.Ref(metaClass), peg.Ref(metaAny), peg.Ref(metaReference),
			),
			Flags: peg.Transparent,
			Label: "expression",
		},
		peg.NewRule("group", peg.Seq(peg.Lit("("), peg.Ref(metaChoice), peg.Lit(")")), peg.Transparent),

		{
			Name: metaLiteral,
			Expr: peg.Seq(
				peg.Lit(`"`),
				peg.Star(peg.Alt(
					peg.Seq(peg.Lit(`\`), peg.Any()),
					peg.Seq(peg.Not(peg.Alt(peg.Lit(`"`), peg.Lit("\n"))), peg.Any()),
				)),
				peg.Lit(`"`),
			),
			Flags: peg.Atomic,
			Label: "string literal",
		},
		peg.NewRule(metaRange, peg.Seq(peg.Ref(metaChar), peg.Lit(".."), peg.Ref(metaChar))),
		{
			Name: metaChar,
			Expr: peg.Seq(
				peg.Lit("'"),
				peg.Alt(
					peg.Seq(peg.Lit(`\`), peg.Any(), peg.Star(peg.Seq(peg.Not(peg.Lit("'")), peg.Any()))),
					peg.Seq(peg.Not(peg.Lit("'")), peg.Any()),
				),
				peg.Lit("'"),
			),
			Flags: peg.Atomic,
			Label: "character literal",
		},
		{
			Name: metaClass,
			Expr: peg.Seq(
				peg.Lit("["),
				peg.Star(peg.Alt(
					peg.Seq(peg.Lit(`\`), peg.Any()),
					peg.Seq(peg.Not(peg.Lit("]")), peg.Any()),
				)),
				peg.Lit("]"),
			),
			Flags: peg.Atomic,
			Label: "character class",
		},
		peg.NewRule(metaAny, peg.Lit("."), peg.Atomic),
		peg.NewRule(metaReference, peg.Ref(metaName), peg.Atomic),

		peg.NewRule(peg.Whitespace, peg.Alt(peg.Lit(" "), peg.Lit("\t"), peg.Lit("\r"), peg.Lit("\n")), peg.Silent),
		peg.NewRule(peg.Comment, peg.Seq(peg.Lit("//"), peg.Star(peg.Seq(peg.Not(peg.Lit("\n")), peg.Any()))), peg.Silent),
	}

	built, err := peg.Build(rules, metaGrammar)
	if err != nil {
		panic(err)
	}
	return built
})
