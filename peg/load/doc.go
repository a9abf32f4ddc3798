// Package load reads grammar descriptions from files.
//
// Three formats are understood. The textual format is the native one:
//
//	// A number is one or more digits.
//	number     = { digit+ }
//	digit      = { '0'..'9' }
//	ident      = @{ [a-zA-Z_] [a-zA-Z0-9_]* }
//	list       = %{ item ("," item)* }
//	WHITESPACE = _{ " " / "\t" / "\n" }
//
// The modifiers _, @ and % make a rule silent, atomic or transparent. The
// first rule is the start rule. The textual format is itself parsed with
// the matching engine.
//
// YAML descriptions list rules under "rules", each with a name and an
// expression in the textual syntax, plus optional flags and a display
// label. EBNF descriptions use the dialect of the Go specification as read
// by golang.org/x/exp/ebnf.
package load
