package grammar

import (
	"errors"
	"fmt"
	"slices"

	"github.com/agnivade/levenshtein"
)

// ErrorKind classifies grammar configuration errors.
type ErrorKind int

const (
	DuplicateRuleName ErrorKind = iota + 1
	UndefinedRuleReference
	NoSuchStartRule
	ZeroWidthRepetition
	LeftRecursion
	InvalidFlags
	EmptyRuleName
	NilExpression
)

var errorKindNames = map[ErrorKind]string{
	DuplicateRuleName:      "DuplicateRuleName",
	UndefinedRuleReference: "UndefinedRuleReference",
	NoSuchStartRule:        "NoSuchStartRule",
	ZeroWidthRepetition:    "ZeroWidthRepetition",
	LeftRecursion:          "LeftRecursion",
	InvalidFlags:           "InvalidFlags",
	EmptyRuleName:          "EmptyRuleName",
	NilExpression:          "NilExpression",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is a grammar configuration error detected by Build. These are fatal:
// a grammar that fails to build cannot be used for parsing.
type Error struct {
	Kind ErrorKind
	// Rule is the rule in which the problem was found, if any.
	Rule string
	// Name is the offending name: the duplicated rule, the undefined
	// reference or the missing start rule.
	Name string
	// Detail carries extra context, such as a suggestion or a cycle.
	Detail string
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case DuplicateRuleName:
		msg = fmt.Sprintf("duplicate rule %q", e.Name)
	case UndefinedRuleReference:
		msg = fmt.Sprintf("rule %q references undefined rule %q", e.Rule, e.Name)
	case NoSuchStartRule:
		if e.Name == "" {
			msg = "no start rule given"
		} else {
			msg = fmt.Sprintf("start rule %q is not defined", e.Name)
		}
	case ZeroWidthRepetition:
		msg = fmt.Sprintf("rule %q repeats an expression that can match the empty string", e.Rule)
	case LeftRecursion:
		msg = fmt.Sprintf("rule %q is left-recursive", e.Rule)
	case InvalidFlags:
		msg = fmt.Sprintf("rule %q has conflicting flags", e.Rule)
	case EmptyRuleName:
		msg = "rule with empty name"
	case NilExpression:
		msg = fmt.Sprintf("rule %q has a nil expression", e.Rule)
	default:
		msg = "invalid grammar"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Errors collects every configuration error found by a single Build.
type Errors []*Error

func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0].Error()
	}
	return fmt.Sprintf("%d errors, first error was: %v", len(errs), errs[0])
}

func (errs Errors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// IsKind reports whether err is, or contains, a grammar error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var list Errors
	if errors.As(err, &list) {
		for _, e := range list {
			if e.Kind == kind {
				return true
			}
		}
		return false
	}
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// suggest returns the candidate closest to name, if it is close enough to
// be a plausible typo.
func suggest(name string, candidates []string) string {
	limit := len(name)/3 + 1
	var closest []string
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		switch {
		case d < limit:
			closest = []string{c}
			limit = d
		case d == limit:
			closest = append(closest, c)
		}
	}
	if len(closest) == 0 {
		return ""
	}
	slices.Sort(closest)
	return closest[0]
}
