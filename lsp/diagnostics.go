package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/pegmatch/peg/parse"
)

const diagnosticSource = "pegmatch"

func toDiagnostics(text string, res *parse.Result, err error) []protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := diagnosticSource

	if err != nil {
		return []protocol.Diagnostic{{
			Range:    protocol.Range{},
			Severity: &severity,
			Source:   &source,
			Message:  err.Error(),
		}}
	}

	d := res.Diagnostic
	if d == nil {
		return []protocol.Diagnostic{}
	}

	start := d.Position.Offset
	end := start
	if _, w := utf8.DecodeRuneInString(text[start:]); w > 0 {
		end += w
	}

	code := protocol.IntegerOrString{Value: d.Kind.String()}
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: position(text, start),
			End:   position(text, end),
		},
		Severity: &severity,
		Code:     &code,
		Source:   &source,
		Message:  d.Message(),
	}}
}

// position converts a byte offset into a zero-based line and a column
// counted in UTF-16 code units.
func position(text string, offset int) protocol.Position {
	before := text[:offset]
	line := strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1

	character := 0
	for _, r := range before[lineStart:] {
		character += utf16.RuneLen(r)
	}
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(character),
	}
}
