// Package metrics exposes parse and language server statistics in the
// Prometheus format.
//
// Metrics:
//   - pegmatch_parses_total: parses by outcome (ok, unexpected_input,
//     incomplete_parse, fault, error)
//   - pegmatch_parse_duration_seconds: parse latency
//   - pegmatch_memo_lookups_total: memo table lookups by result (hit, miss)
//   - pegmatch_grammar_reloads_total: grammar reloads by result
//   - pegmatch_cache_lookups_total: diagnostic cache lookups by result
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dhamidi/pegmatch/peg/grammar"
	"github.com/dhamidi/pegmatch/peg/parse"
)

const namespace = "pegmatch"

// Collector records metrics into its own registry. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	parsesTotal   *prometheus.CounterVec
	parseDuration prometheus.Histogram
	memoLookups   *prometheus.CounterVec
	reloadsTotal  *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		parsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parses_total",
				Help:      "Total number of parses by outcome",
			},
			[]string{"outcome"},
		),

		parseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "parse_duration_seconds",
				Help:      "Time spent matching one input",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),

		memoLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memo_lookups_total",
				Help:      "Total number of memo table lookups by result",
			},
			[]string{"result"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grammar_reloads_total",
				Help:      "Total number of grammar reloads by result",
			},
			[]string{"result"},
		),

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of diagnostic cache lookups by result",
			},
			[]string{"result"},
		),
	}

	c.registry.MustRegister(
		c.parsesTotal,
		c.parseDuration,
		c.memoLookups,
		c.reloadsTotal,
		c.cacheLookups,
	)
	return c
}

// Outcome names the result of a parse for the outcome label.
func Outcome(res *parse.Result, err error) string {
	var fault *parse.EngineFault
	switch {
	case errors.As(err, &fault):
		return "fault"
	case err != nil:
		return "error"
	case res.OK():
		return "ok"
	case res.Diagnostic.Kind == parse.IncompleteParse:
		return "incomplete_parse"
	}
	return "unexpected_input"
}

// ObserveParse records one call to parse.Parse.
func (c *Collector) ObserveParse(res *parse.Result, err error, took time.Duration) {
	if c == nil {
		return
	}
	c.parsesTotal.WithLabelValues(Outcome(res, err)).Inc()
	c.parseDuration.Observe(took.Seconds())
	if res != nil {
		c.memoLookups.WithLabelValues("hit").Add(float64(res.Stats.MemoHits))
		c.memoLookups.WithLabelValues("miss").Add(float64(res.Stats.MemoMisses))
	}
}

// ObserveReload records a grammar reload attempt.
func (c *Collector) ObserveReload(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.reloadsTotal.WithLabelValues(result).Inc()
}

// ObserveCache records a diagnostic cache lookup.
func (c *Collector) ObserveCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Summary is a snapshot of the parse metrics.
type Summary struct {
	Parses     map[string]int // by outcome
	MemoHits   int
	MemoMisses int
	Duration   time.Duration // total time spent parsing
}

// Summary gathers the parse metrics recorded so far.
func (c *Collector) Summary() (Summary, error) {
	sum := Summary{Parses: make(map[string]int)}
	if c == nil {
		return sum, nil
	}

	families, err := c.registry.Gather()
	if err != nil {
		return sum, fmt.Errorf("gather metrics: %w", err)
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			var label string
			for _, l := range m.GetLabel() {
				label = l.GetValue()
			}
			switch f.GetName() {
			case namespace + "_parses_total":
				sum.Parses[label] = int(m.GetCounter().GetValue())
			case namespace + "_memo_lookups_total":
				if label == "hit" {
					sum.MemoHits = int(m.GetCounter().GetValue())
				} else {
					sum.MemoMisses = int(m.GetCounter().GetValue())
				}
			case namespace + "_parse_duration_seconds":
				sum.Duration = time.Duration(m.GetHistogram().GetSampleSum() * float64(time.Second))
			}
		}
	}
	return sum, nil
}

// Registry returns the registry the collector records into.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Parse calls parse.Parse and records the outcome.
func (c *Collector) Parse(g *grammar.Grammar, input string, opts ...parse.Option) (*parse.Result, error) {
	start := time.Now()
	res, err := parse.Parse(g, input, opts...)
	c.ObserveParse(res, err, time.Since(start))
	return res, err
}
