package task

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Lifecycle(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.taskEnqueued()
	m.taskEnqueued()
	m.taskStarted()
	m.taskFinished("error", 20*time.Millisecond)
	m.taskRetired("delivered")
	m.taskRetired("suppressed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.enqueued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pending))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.running))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completed.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("suppressed")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.taskEnqueued()
		m.taskStarted()
		m.taskFinished("success", time.Millisecond)
		m.taskRetired("delivered")
	})
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNewMetrics(reg)

	assert.Panics(t, func() { MustNewMetrics(reg) })
}
