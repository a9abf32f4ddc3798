package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/pegmatch/format"
	"github.com/dhamidi/pegmatch/internal/metrics"
	"github.com/dhamidi/pegmatch/peg/grammar"
	"github.com/dhamidi/pegmatch/peg/load"
	"github.com/dhamidi/pegmatch/peg/parse"
)

// errFailed is returned when every problem was already reported.
var errFailed = errors.New("failed")

type parseOptions struct {
	grammarPath  string
	start        string
	outputFormat string
	pattern      string
	partial      bool
	noMemo       bool
	stats        bool
	jobs         int
}

type parsed struct {
	source string
	res    *parse.Result
	err    error
}

func newParseCmd() *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse --grammar <file> <source>...",
		Short: "Parse files against a grammar and print the trees",
		Long: `Parse each source against the grammar and print the resulting tree or
diagnostic. A directory source is walked; --pattern restricts which of its
files are parsed. The source "-" reads standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.grammarPath, "grammar", "g", "", "grammar description (.peg, .yaml or .ebnf)")
	cmd.Flags().StringVar(&opts.start, "start", "", "start rule (default: the grammar's first rule)")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "text", "output format ("+strings.Join(format.Names(), ", ")+")")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "glob selecting files inside directory sources")
	cmd.Flags().BoolVar(&opts.partial, "partial", false, "accept a match of a prefix of the input")
	cmd.Flags().BoolVar(&opts.noMemo, "no-memo", false, "disable memoization")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print parse outcomes and memo table use to stderr")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "number of sources parsed concurrently")
	cmd.MarkFlagRequired("grammar")

	return cmd
}

func runParse(stdout, stderr io.Writer, opts parseOptions, args []string) error {
	log := commonlog.GetLogger("pegmatch.cli")

	g, err := load.Grammar(opts.grammarPath, opts.start)
	if err != nil {
		return err
	}
	enc, err := format.New(opts.outputFormat, stdout)
	if err != nil {
		return err
	}

	var match glob.Glob
	if opts.pattern != "" {
		if match, err = glob.Compile(opts.pattern, '/'); err != nil {
			return fmt.Errorf("pattern %q: %w", opts.pattern, err)
		}
	}

	sources, err := collectSources(args, match)
	if err != nil {
		return err
	}
	log.Debugf("parsing %d sources with %d jobs", len(sources), opts.jobs)

	var parseOpts []parse.Option
	if opts.partial {
		parseOpts = append(parseOpts, parse.WithPartial())
	}
	if opts.noMemo {
		parseOpts = append(parseOpts, parse.WithoutMemo())
	}

	collector := metrics.NewCollector()
	results := make([]parsed, len(sources))

	var eg errgroup.Group
	if opts.jobs > 0 {
		eg.SetLimit(opts.jobs)
	}
	for i, source := range sources {
		eg.Go(func() error {
			results[i] = parseSource(collector, g, source, parseOpts)
			return nil
		})
	}
	eg.Wait()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintln(stderr, r.err)
			failed++
			continue
		}
		if err := enc.Encode(r.res); err != nil {
			return fmt.Errorf("encode %s: %w", r.source, err)
		}
		if !r.res.OK() {
			failed++
		}
	}

	if opts.stats {
		if err := printStats(stderr, collector); err != nil {
			return err
		}
	}

	if failed > 0 {
		log.Infof("%d of %d sources failed", failed, len(sources))
		return errFailed
	}
	return nil
}

func parseSource(collector *metrics.Collector, g *grammar.Grammar, source string, opts []parse.Option) parsed {
	data, err := readSource(source)
	if err != nil {
		return parsed{source: source, err: err}
	}
	opts = append(opts[:len(opts):len(opts)], parse.WithFilename(source))
	res, err := collector.Parse(g, string(data), opts...)
	if err != nil {
		return parsed{source: source, err: fmt.Errorf("parse %s: %w", source, err)}
	}
	return parsed{source: source, res: res}
}

func printStats(w io.Writer, collector *metrics.Collector) error {
	sum, err := collector.Summary()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Statistic", "Value"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, outcome := range slices.Sorted(maps.Keys(sum.Parses)) {
		table.Append([]string{"parses " + outcome, strconv.Itoa(sum.Parses[outcome])})
	}
	table.Append([]string{"memo hits", strconv.Itoa(sum.MemoHits)})
	table.Append([]string{"memo misses", strconv.Itoa(sum.MemoMisses)})
	table.Append([]string{"parse time", sum.Duration.String()})

	table.Render()
	return nil
}

func readSource(source string) ([]byte, error) {
	if source == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return data, nil
}

// collectSources expands directory arguments into the files below them.
// Hidden directories are skipped. Files named directly are always kept;
// files found in directories are kept when the pattern matches either
// their name or their path relative to the directory argument.
func collectSources(args []string, match glob.Glob) ([]string, error) {
	var sources []string
	for _, arg := range args {
		if arg == "-" {
			sources = append(sources, arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			sources = append(sources, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if match != nil && !matches(match, arg, path) {
				return nil
			}
			sources = append(sources, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return sources, nil
}

func matches(match glob.Glob, root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return match.Match(rel) || match.Match(filepath.Base(path))
}
