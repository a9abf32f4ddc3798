package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/pegmatch/peg/parse"
)

// LineEncoder writes one tab-separated line per tree node:
//
//	file	line:column	depth	rule	text
//
// Text is only given for leaves. A failed parse writes a single error line.
type LineEncoder struct {
	w   io.Writer
	res *parse.Result
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(res *parse.Result) error {
	e.res = res
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	res := e.res

	if d := res.Diagnostic; d != nil {
		fmt.Fprintf(&sb, "%s\t%d:%d\terror\t%s\n",
			e.file(),
			d.Position.Line,
			d.Position.Column,
			d.Message(),
		)
		return []byte(sb.String()), nil
	}

	idx := newLineIndex(res.Input)
	var walk func(n *parse.Node, depth int)
	walk = func(n *parse.Node, depth int) {
		line, column := idx.position(n.Span.Start)
		fmt.Fprintf(&sb, "%s\t%d:%d\t%d\t%s\t%s\n",
			e.file(),
			line,
			column,
			depth,
			n.Rule,
			e.leafText(n),
		)
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	walk(res.Tree, 0)

	return []byte(sb.String()), nil
}

func (e *LineEncoder) file() string {
	if e.res.Filename == "" {
		return "-"
	}
	return e.res.Filename
}

func (e *LineEncoder) leafText(n *parse.Node) string {
	if len(n.Children) > 0 {
		return "-"
	}
	return strconv.Quote(e.res.Text(n))
}
