package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/pegmatch/cmd/internal/env"

	_ "github.com/tliron/commonlog/simple"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var verbose int

	rootCmd := &cobra.Command{
		Use:           "pegmatch",
		Short:         "Match text against PEG grammars",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Apply(cmd.Root()); err != nil {
				return err
			}
			if err := env.Apply(cmd); err != nil {
				return err
			}
			commonlog.Configure(verbose, nil)
			return nil
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newLSPCmd())

	return rootCmd
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if err != errFailed {
			rootCmd.PrintErrln("pegmatch:", err)
		}
		os.Exit(1)
	}
}
