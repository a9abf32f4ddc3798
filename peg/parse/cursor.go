package parse

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Position represents a location in the input.
type Position struct {
	Filename string
	Offset   int // byte offset, 0-based
	Line     int // 1-based
	Column   int // 1-based, in characters
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Cursor is a position in an input text. It is a small value: advancing
// returns a new Cursor and leaves the receiver untouched.
type Cursor struct {
	input  string
	offset int
}

// NewCursor returns a cursor at the start of input.
func NewCursor(input string) Cursor {
	return Cursor{input: input}
}

func (c Cursor) Offset() int {
	return c.offset
}

func (c Cursor) AtEnd() bool {
	return c.offset >= len(c.input)
}

// Peek returns the character at the cursor and its width in bytes. At the
// end of input the width is 0. Invalid UTF-8 reads as utf8.RuneError of
// width 1.
func (c Cursor) Peek() (rune, int) {
	if c.offset >= len(c.input) {
		return 0, 0
	}
	if b := c.input[c.offset]; b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRuneInString(c.input[c.offset:])
}

// Advance returns a cursor n bytes further, clamped to the end of input.
func (c Cursor) Advance(n int) Cursor {
	c.offset += n
	if c.offset > len(c.input) {
		c.offset = len(c.input)
	}
	return c
}

// At returns a cursor at the given offset of the same input, clamped to
// the input's bounds.
func (c Cursor) At(offset int) Cursor {
	c.offset = min(max(offset, 0), len(c.input))
	return c
}

// HasPrefix reports whether the input at the cursor starts with s.
func (c Cursor) HasPrefix(s string) bool {
	return strings.HasPrefix(c.input[c.offset:], s)
}

// Slice returns the input between two offsets.
func (c Cursor) Slice(start, end int) string {
	return c.input[start:end]
}

// Position computes the line and column of the cursor. It scans the
// consumed input, so it is meant for diagnostics, not for the matching path.
func (c Cursor) Position() Position {
	line, column := 1, 1
	for _, r := range c.input[:c.offset] {
		if r == '\n' {
			line++
			column = 0
		}
		column++
	}
	return Position{Offset: c.offset, Line: line, Column: column}
}
