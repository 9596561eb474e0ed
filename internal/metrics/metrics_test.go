package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.WithLabelValues(labels...).Write(&m))
	return m.GetCounter().GetValue()
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("CreateFile", true, time.Millisecond)
	m.ObserveNotLeader("CreateFile")
}

func TestObserveRequestIncrementsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("CreateFile", true, 2*time.Millisecond)
	m.ObserveRequest("CreateFile", false, time.Millisecond)

	assert.Equal(t, float64(1), counterValue(t, m.requestsTotal, "CreateFile", ResultSuccess))
	assert.Equal(t, float64(1), counterValue(t, m.requestsTotal, "CreateFile", ResultError))
}

func TestObserveNotLeader(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveNotLeader("Mkdir")
	m.ObserveNotLeader("Mkdir")

	assert.Equal(t, float64(2), counterValue(t, m.notLeaderTotal, "Mkdir"))
}

func TestUnregisteredMetricsStillRecord(t *testing.T) {
	m := New(nil)
	m.ObserveRequest("Delete", true, time.Millisecond)
	assert.Equal(t, float64(1), counterValue(t, m.requestsTotal, "Delete", ResultSuccess))
}
