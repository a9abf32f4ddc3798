// Package env fills command line flags from PEGMATCH_* environment
// variables.
package env

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const globalPrefix = "pegmatch"

// Prefix returns the environment variable prefix for a command: PEGMATCH
// for the root command, PEGMATCH_<NAME> for subcommands.
func Prefix(cmd *cobra.Command) string {
	if !cmd.HasParent() {
		return strings.ToUpper(globalPrefix)
	}
	return strings.ToUpper(globalPrefix + "_" + cmd.Name())
}

// Apply sets every flag of cmd that was not given on the command line but
// has a value in the environment. The variable for the flag --metrics-addr
// of the lsp command is PEGMATCH_LSP_METRICS_ADDR.
func Apply(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(Prefix(cmd))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
			errs = append(errs, fmt.Sprintf("%s_%s: %s", Prefix(cmd), strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err))
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("environment: %s", strings.Join(errs, "; "))
}
