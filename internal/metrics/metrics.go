// Package metrics exposes the Prometheus counters the dispatcher updates
// after every request: one totality counter per operation/outcome pair, and
// a request-duration histogram. A nil *Metrics is valid and every method is
// a no-op, so the dispatcher can run unmetered in tests without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label names shared across the dispatch counters.
const (
	LabelOpCode = "op_code"
	LabelResult = "result"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the dispatch-path Prometheus collectors.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	notLeaderTotal  *prometheus.CounterVec

	registered bool
}

// New creates dispatch metrics. If registry is nil, the collectors are
// constructed but not registered, which is useful in tests that don't want
// a live registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "curvine",
				Subsystem: "master",
				Name:      "rpc_requests_total",
				Help:      "Total number of dispatched RPCs by operation and result.",
			},
			[]string{LabelOpCode, LabelResult},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "curvine",
				Subsystem: "master",
				Name:      "rpc_duration_seconds",
				Help:      "Dispatch latency by operation, from decode to reply.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{LabelOpCode},
		),
		notLeaderTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "curvine",
				Subsystem: "master",
				Name:      "rpc_not_leader_total",
				Help:      "Total number of RPCs rejected because this instance is not the leader.",
			},
			[]string{LabelOpCode},
		),
	}

	if registry != nil {
		registry.MustRegister(m.requestsTotal, m.requestDuration, m.notLeaderTotal)
		m.registered = true
	}
	return m
}

// ObserveRequest records one completed dispatch: its operation, whether it
// succeeded, and how long it took.
func (m *Metrics) ObserveRequest(opCode string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if !success {
		result = ResultError
	}
	m.requestsTotal.WithLabelValues(opCode, result).Inc()
	m.requestDuration.WithLabelValues(opCode).Observe(elapsed.Seconds())
}

// ObserveNotLeader records a request rejected by the leader gate before it
// reached a handler.
func (m *Metrics) ObserveNotLeader(opCode string) {
	if m == nil {
		return
	}
	m.notLeaderTotal.WithLabelValues(opCode).Inc()
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	if m == nil || !m.registered {
		return
	}
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.notLeaderTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	if m == nil || !m.registered {
		return
	}
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.notLeaderTotal.Collect(ch)
}
