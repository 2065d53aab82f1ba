// Package metrics exposes Prometheus metrics for deployment runs.
//
// Every Collector owns its registry, so tests and several App instances in
// one process never collide on the default registry. A nil *Collector is
// valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels how an action ended.
type Outcome string

const (
	OutcomeExecuted  Outcome = "executed"
	OutcomeReused    Outcome = "reused"
	OutcomeRecovered Outcome = "recovered"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Collector records action and run metrics.
type Collector struct {
	registry *prometheus.Registry

	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	submissions    *prometheus.CounterVec
	journalWrites  *prometheus.CounterVec
	inflight       prometheus.Gauge
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
}

// NewCollector creates a collector with a fresh registry that also carries
// the Go runtime and process collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deploygrid_actions_total",
				Help: "Actions finished, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		actionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deploygrid_action_duration_seconds",
				Help:    "Time from picking an action up to its journaled outcome",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"kind"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deploygrid_network_submissions_total",
				Help: "Requests submitted to the network",
			},
			[]string{"kind"},
		),
		journalWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deploygrid_journal_writes_total",
				Help: "Journal records written, by resulting status",
			},
			[]string{"status"},
		),
		inflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deploygrid_actions_inflight",
				Help: "Actions currently being executed",
			},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deploygrid_runs_total",
				Help: "Deployment runs, by result",
			},
			[]string{"result"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deploygrid_run_duration_seconds",
				Help:    "Wall time of a deployment run",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
			},
		),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ActionStarted marks an action in progress.
func (c *Collector) ActionStarted() {
	if c == nil {
		return
	}
	c.inflight.Inc()
}

// ActionFinished records the outcome of an action started with
// ActionStarted.
func (c *Collector) ActionFinished(kind string, outcome Outcome, d time.Duration) {
	if c == nil {
		return
	}
	c.inflight.Dec()
	c.actions.WithLabelValues(kind, string(outcome)).Inc()
	c.actionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ActionSkipped records an action that was never started.
func (c *Collector) ActionSkipped(kind string) {
	if c == nil {
		return
	}
	c.actions.WithLabelValues(kind, string(OutcomeSkipped)).Inc()
}

// Submitted counts one network submission.
func (c *Collector) Submitted(kind string) {
	if c == nil {
		return
	}
	c.submissions.WithLabelValues(kind).Inc()
}

// JournalWrite counts one journal record.
func (c *Collector) JournalWrite(status string) {
	if c == nil {
		return
	}
	c.journalWrites.WithLabelValues(status).Inc()
}

// RunFinished records a whole run.
func (c *Collector) RunFinished(ok bool, d time.Duration) {
	if c == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	c.runs.WithLabelValues(result).Inc()
	c.runDuration.Observe(d.Seconds())
}
