package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dhamidi/pegmatch/peg/grammar"
	"github.com/dhamidi/pegmatch/peg/load"
)

func newCheckCmd() *cobra.Command {
	var start string
	var showRules bool

	cmd := &cobra.Command{
		Use:   "check <grammar>",
		Short: "Load and verify a grammar description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], start, showRules)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start rule (default: the grammar's first rule)")
	cmd.Flags().BoolVar(&showRules, "rules", false, "print a table of the grammar's rules")

	return cmd
}

func runCheck(stdout, stderr io.Writer, path, start string, showRules bool) error {
	d, err := load.File(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errFailed
	}

	g, err := d.Build(start)
	if err != nil {
		printErrors(stderr, d.Filename, err)
		return errFailed
	}

	fmt.Fprintf(stdout, "%s: %d rules, start rule %s\n", d.Filename, g.Len(), g.Start().Name)
	if showRules {
		printRules(stdout, g)
	}
	return nil
}

// printErrors writes one line per grammar error.
func printErrors(w io.Writer, filename string, err error) {
	var list grammar.Errors
	if !errors.As(err, &list) {
		fmt.Fprintln(w, err)
		return
	}
	for _, e := range list {
		fmt.Fprintf(w, "%s: %s\n", filename, e)
	}
}

func printRules(w io.Writer, g *grammar.Grammar) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rule", "Flags", "Nullable", "Expression"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, r := range g.Rules() {
		nullable := "no"
		if g.Nullable(r.Name) {
			nullable = "yes"
		}
		table.Append([]string{r.Name, r.Flags.String(), nullable, r.Expr.String()})
	}

	table.Render()
}
