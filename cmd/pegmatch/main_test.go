package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gobwas/glob"
	"github.com/google/go-cmp/cmp"
)

const numberGrammar = `number = { digit+ }
digit = { '0'..'9' }
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, text := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollectSources(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.num":         "42",
		"b.num":         "7",
		"sub/c.txt":     "x",
		"sub/d.num":     "1",
		".hidden/e.num": "1",
	})
	rel := func(paths []string) []string {
		out := make([]string, len(paths))
		for i, p := range paths {
			r, _ := filepath.Rel(root, p)
			out[i] = filepath.ToSlash(r)
		}
		return out
	}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{name: "all", want: []string{"a.num", "b.num", "sub/c.txt", "sub/d.num"}},
		{name: "by name", pattern: "*.num", want: []string{"a.num", "b.num", "sub/d.num"}},
		{name: "by path", pattern: "sub/*", want: []string{"sub/c.txt", "sub/d.num"}},
		{name: "none", pattern: "*.go", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var match glob.Glob
			if tt.pattern != "" {
				match = glob.MustCompile(tt.pattern, '/')
			}
			got, err := collectSources([]string{root}, match)
			if err != nil {
				t.Fatalf("collectSources() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, rel(got)); diff != "" {
				t.Errorf("sources mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollectSourcesKeepsFiles(t *testing.T) {
	got, err := collectSources([]string{"-", "missing.num"}, glob.MustCompile("*.txt"))
	if err != nil {
		t.Fatalf("collectSources() error = %v", err)
	}
	if diff := cmp.Diff([]string{"-", "missing.num"}, got); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestRunParse(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"number.peg": numberGrammar,
		"ok.num":     "42",
	})
	grammarPath := filepath.Join(root, "number.peg")
	source := filepath.Join(root, "ok.num")

	var stdout, stderr bytes.Buffer
	err := runParse(&stdout, &stderr, parseOptions{
		grammarPath:  grammarPath,
		outputFormat: "text",
		jobs:         2,
	}, []string{source})
	if err != nil {
		t.Fatalf("runParse() error = %v", err)
	}

	want := source + ":\n" +
		"number [0-2]\n" +
		"  digit [0-1] \"4\"\n" +
		"  digit [1-2] \"2\"\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %s", stderr.String())
	}
}

func TestRunParseFailures(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"number.peg": numberGrammar,
		"ok.num":     "7",
		"bad.num":    "4a",
	})
	grammarPath := filepath.Join(root, "number.peg")
	ok := filepath.Join(root, "ok.num")
	bad := filepath.Join(root, "bad.num")
	missing := filepath.Join(root, "missing.num")

	var stdout, stderr bytes.Buffer
	err := runParse(&stdout, &stderr, parseOptions{
		grammarPath:  grammarPath,
		outputFormat: "line",
		jobs:         1,
	}, []string{ok, missing, bad})
	if err != errFailed {
		t.Fatalf("runParse() error = %v, want errFailed", err)
	}

	want := ok + "\t1:1\t0\tnumber\t-\n" +
		ok + "\t1:1\t1\tdigit\t\"7\"\n" +
		bad + "\t1:2\terror\tincomplete parse: expected digit or end of input, found 'a'\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr.String(), "read "+missing) {
		t.Errorf("stderr does not report the missing source: %s", stderr.String())
	}
}

func TestRunParsePartial(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"number.peg": numberGrammar,
		"in.num":     "4a",
	})

	var stdout, stderr bytes.Buffer
	err := runParse(&stdout, &stderr, parseOptions{
		grammarPath:  filepath.Join(root, "number.peg"),
		outputFormat: "text",
		partial:      true,
		noMemo:       true,
	}, []string{filepath.Join(root, "in.num")})
	if err != nil {
		t.Fatalf("runParse() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "number [0-1]") {
		t.Errorf("partial parse output = %q", stdout.String())
	}
}

func TestRunParseStats(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"number.peg": numberGrammar,
		"ok.num":     "42",
		"bad.num":    "4a",
	})

	var stdout, stderr bytes.Buffer
	err := runParse(&stdout, &stderr, parseOptions{
		grammarPath:  filepath.Join(root, "number.peg"),
		outputFormat: "line",
		stats:        true,
		jobs:         1,
	}, []string{filepath.Join(root, "ok.num"), filepath.Join(root, "bad.num")})
	if err != errFailed {
		t.Fatalf("runParse() error = %v, want errFailed", err)
	}

	out := stderr.String()
	for _, want := range []string{"Statistic", "parses ok", "parses incomplete_parse", "memo hits", "memo misses", "parse time"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestRunParseConfigErrors(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"number.peg": numberGrammar})
	grammarPath := filepath.Join(root, "number.peg")

	tests := []struct {
		name string
		opts parseOptions
		want string
	}{
		{
			name: "missing grammar",
			opts: parseOptions{grammarPath: filepath.Join(root, "none.peg"), outputFormat: "text"},
			want: "none.peg",
		},
		{
			name: "unknown start rule",
			opts: parseOptions{grammarPath: grammarPath, start: "letter", outputFormat: "text"},
			want: `start rule "letter" is not defined`,
		},
		{
			name: "unknown format",
			opts: parseOptions{grammarPath: grammarPath, outputFormat: "xml"},
			want: `unknown format "xml"`,
		},
		{
			name: "bad pattern",
			opts: parseOptions{grammarPath: grammarPath, outputFormat: "text", pattern: "[a"},
			want: `pattern "[a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := runParse(&stdout, &stderr, tt.opts, []string{root})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("runParse() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestCheckCmd(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"number.peg": numberGrammar,
		"broken.peg": "a = { b / c }\n",
	})

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"check", "--rules", filepath.Join(root, "number.peg")})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("check error = %v, stderr: %s", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"2 rules, start rule number", "Expression", "digit+", "'0'..'9'"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}

	stdout.Reset()
	stderr.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"check", filepath.Join(root, "broken.peg")})
	if err := cmd.Execute(); err != errFailed {
		t.Fatalf("check of broken grammar error = %v, want errFailed", err)
	}
	for _, want := range []string{`references undefined rule "b"`, `references undefined rule "c"`} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("check errors missing %q:\n%s", want, stderr.String())
		}
	}
}

func TestParseCmdEnvironment(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"number.peg": numberGrammar,
		"in.num":     "9",
	})
	t.Setenv("PEGMATCH_PARSE_GRAMMAR", filepath.Join(root, "number.peg"))
	t.Setenv("PEGMATCH_PARSE_FORMAT", "line")

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"parse", filepath.Join(root, "in.num")})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if !strings.Contains(stdout.String(), "\tdigit\t\"9\"") {
		t.Errorf("parse output = %q", stdout.String())
	}
}
