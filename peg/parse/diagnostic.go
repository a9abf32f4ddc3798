package parse

import (
	"strconv"
	"strings"

	"github.com/dhamidi/pegmatch/peg/grammar"
)

// DiagnosticKind classifies parse failures.
type DiagnosticKind int

const (
	// UnexpectedInput means the start rule did not match.
	UnexpectedInput DiagnosticKind = iota + 1
	// IncompleteParse means the start rule matched a prefix of the input
	// but input remained.
	IncompleteParse
)

func (k DiagnosticKind) String() string {
	switch k {
	case UnexpectedInput:
		return "UnexpectedInput"
	case IncompleteParse:
		return "IncompleteParse"
	}
	return "Unknown"
}

// Diagnostic describes why an input did not match: the farthest position
// matching reached, and what was expected there.
type Diagnostic struct {
	Kind     DiagnosticKind
	Position Position
	// Expected holds the distinct expectation labels in the order they
	// were first recorded.
	Expected []string
	// Found is the quoted character at Position, or "end of input".
	Found string
}

// Error implements error so that a Diagnostic can be returned or wrapped
// by callers that treat parse failures as errors.
func (d *Diagnostic) Error() string {
	return d.Position.String() + ": " + d.Message()
}

// Message is the diagnostic text without its position.
func (d *Diagnostic) Message() string {
	var b strings.Builder
	if d.Kind == IncompleteParse {
		b.WriteString("incomplete parse: ")
	}
	if len(d.Expected) > 0 {
		b.WriteString("expected ")
		b.WriteString(listJoin(d.Expected, ", ", "or"))
		b.WriteString(", ")
	} else {
		b.WriteString("unexpected input, ")
	}
	b.WriteString("found ")
	b.WriteString(d.Found)
	return b.String()
}

func listJoin(list []string, sep, lastSep string) string {
	switch len(list) {
	case 0:
		return ""
	case 1:
		return list[0]
	}
	return strings.Join(list[:len(list)-1], sep) + " " + lastSep + " " + list[len(list)-1]
}

// diagnostic materializes the tracker state. Line and column are only
// computed here.
func (m *matcher) diagnostic(kind DiagnosticKind, filename string) *Diagnostic {
	offset := m.track.offset
	expected := m.track.expectations()
	if offset < 0 {
		offset = 0
		expected = []string{m.g.Start().DisplayName()}
	}
	cur := m.src.At(offset)
	pos := cur.Position()
	pos.Filename = filename

	found := grammar.EndOfInputLabel
	if ch, w := cur.Peek(); w > 0 {
		found = strconv.QuoteRune(ch)
	}
	return &Diagnostic{
		Kind:     kind,
		Position: pos,
		Expected: expected,
		Found:    found,
	}
}
