package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/pegmatch/internal/metrics"
	"github.com/dhamidi/pegmatch/lsp"
)

func newLSPCmd() *cobra.Command {
	var grammarPath string
	var start string
	var metricsAddr string
	var cacheSize int

	cmd := &cobra.Command{
		Use:   "lsp --grammar <file>",
		Short: "Start the Language Server Protocol server",
		Long: `Start a language server on standard input and output that reports parse
diagnostics for every open document. The grammar file is reloaded when it
changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := commonlog.GetLogger("pegmatch.cli")
			collector := metrics.NewCollector()

			server, err := lsp.New(grammarPath,
				lsp.WithStartRule(start),
				lsp.WithMetrics(collector),
				lsp.WithCacheSize(cacheSize),
				lsp.WithVersion(version),
			)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", collector.Handler())
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           mux,
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Errorf("metrics server: %s", err)
					}
				}()
				defer srv.Close()
			}

			return server.RunStdio()
		},
	}

	cmd.Flags().StringVarP(&grammarPath, "grammar", "g", "", "grammar description (.peg, .yaml or .ebnf)")
	cmd.Flags().StringVar(&start, "start", "", "start rule (default: the grammar's first rule)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().IntVar(&cacheSize, "cache-size", 256, "number of diagnostic results kept")
	cmd.MarkFlagRequired("grammar")

	return cmd
}
