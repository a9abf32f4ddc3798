package format

import (
	"encoding"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"github.com/dhamidi/pegmatch/peg/parse"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(res *parse.Result) error
}

// Names lists the formats New understands.
func Names() []string {
	return []string{"text", "json", "line"}
}

// New returns the encoder for the named format, writing to w.
func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "text":
		return NewTextEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "line":
		return NewLineEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format %q", name)
}

// lineIndex maps byte offsets of one input to lines and columns.
type lineIndex struct {
	input  string
	starts []int
}

func newLineIndex(input string) *lineIndex {
	idx := &lineIndex{input: input, starts: []int{0}}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			idx.starts = append(idx.starts, i+1)
		}
	}
	return idx
}

// position returns the 1-based line and character column of offset.
func (idx *lineIndex) position(offset int) (int, int) {
	line := sort.SearchInts(idx.starts, offset+1) - 1
	column := utf8.RuneCountInString(idx.input[idx.starts[line]:offset]) + 1
	return line + 1, column
}
