package format

import (
	"io"
	"strings"

	"github.com/dhamidi/pegmatch/peg/parse"
)

// TextEncoder writes the indented tree of a successful parse, or the
// diagnostic of a failed one.
type TextEncoder struct {
	w   io.Writer
	res *parse.Result
}

func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w}
}

func (e *TextEncoder) Encode(res *parse.Result) error {
	e.res = res
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TextEncoder) MarshalText() ([]byte, error) {
	res := e.res
	if res.Diagnostic != nil {
		return []byte(res.Diagnostic.Error() + "\n"), nil
	}

	var sb strings.Builder
	if res.Filename != "" {
		sb.WriteString(res.Filename)
		sb.WriteString(":\n")
	}
	sb.WriteString(res.Tree.StringWithText(res.Input))
	return []byte(sb.String()), nil
}
