package load

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/pegmatch/peg/grammar"
	"github.com/dhamidi/pegmatch/peg/parse"
)

// Format identifies a grammar description syntax.
type Format int

const (
	// PEG is the textual rule syntax, `name = { expr }`.
	PEG Format = iota
	// YAML describes rules as YAML mappings whose expressions use the
	// textual syntax.
	YAML
	// EBNF is the EBNF dialect of the Go language specification.
	EBNF
)

func (f Format) String() string {
	switch f {
	case PEG:
		return "peg"
	case YAML:
		return "yaml"
	case EBNF:
		return "ebnf"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf picks the format from a file extension. Unknown extensions
// default to PEG.
func FormatOf(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return YAML
	case ".ebnf":
		return EBNF
	}
	return PEG
}

// Description is a grammar as written down: rules in definition order and
// the declared start rule. It has not been validated yet.
type Description struct {
	Filename string
	Format   Format
	Rules    []*grammar.Rule
	Start    string
}

// Build validates the description. A non-empty start overrides the
// declared start rule.
func (d *Description) Build(start string) (*grammar.Grammar, error) {
	if start == "" {
		start = d.Start
	}
	g, err := grammar.Build(d.Rules, start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Filename, err)
	}
	return g, nil
}

// SyntaxError is a malformed grammar description.
type SyntaxError struct {
	Filename string
	Line     int
	Column   int
	Msg      string
	// Diagnostic is set when the error comes from parsing the textual
	// syntax.
	Diagnostic *parse.Diagnostic
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Line > 0 && e.Filename != "":
		return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
	case e.Filename != "":
		return fmt.Sprintf("%s: %s", e.Filename, e.Msg)
	}
	return e.Msg
}

func (e *SyntaxError) Unwrap() error {
	if e.Diagnostic == nil {
		return nil
	}
	return e.Diagnostic
}

// File reads a grammar description, picking the format from the file
// extension.
func File(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Bytes(path, data, FormatOf(path))
}

// Bytes reads a grammar description from memory. name is used in error
// messages.
func Bytes(name string, data []byte, format Format) (*Description, error) {
	var (
		d   *Description
		err error
	)
	switch format {
	case PEG:
		d, err = loadPEG(name, string(data))
	case YAML:
		d, err = loadYAML(name, data)
	case EBNF:
		d, err = loadEBNF(name, data)
	default:
		return nil, fmt.Errorf("%s: unknown grammar format %v", name, format)
	}
	if err != nil {
		return nil, err
	}
	d.Filename = name
	d.Format = format
	return d, nil
}

// Grammar reads and builds a grammar description. A non-empty start
// overrides the declared start rule.
func Grammar(path, start string) (*grammar.Grammar, error) {
	d, err := File(path)
	if err != nil {
		return nil, err
	}
	return d.Build(start)
}
