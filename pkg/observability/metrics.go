// Package observability provides Prometheus instrumentation for graph runs.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors recorded by the engine during traversal.
type Metrics struct {
	runsTotal      *prometheus.CounterVec
	nodeExecutions *prometheus.CounterVec
	runDuration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on the given
// registerer. Pass prometheus.DefaultRegisterer for the process default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_runs_total",
				Help: "Total number of graph runs by final status",
			},
			[]string{"status"},
		),
		nodeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_node_executions_total",
				Help: "Total number of node executions by type and outcome",
			},
			[]string{"node_type", "outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weft_run_duration_seconds",
				Help:    "Duration of graph runs",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.runsTotal, m.nodeExecutions, m.runDuration)
	}
	return m
}

// ObserveRun records a finished run. Safe on a nil receiver so the engine
// can call it unconditionally.
func (m *Metrics) ObserveRun(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// ObserveNode records one node execution outcome ("ok" or "error").
func (m *Metrics) ObserveNode(nodeType, outcome string) {
	if m == nil {
		return
	}
	m.nodeExecutions.WithLabelValues(nodeType, outcome).Inc()
}
