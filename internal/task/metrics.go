package task

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report scheduler activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enqueued      prometheus.Counter
	completed     *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	queryDuration prometheus.Histogram
	pending       prometheus.Gauge
	running       prometheus.Gauge
}

// MustNewMetrics constructs a Metrics instance registered with reg.
// Registration errors panic, mirroring promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asyncsql",
			Subsystem: "scheduler",
			Name:      "tasks_enqueued_total",
			Help:      "Total number of queries accepted into the task queue.",
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asyncsql",
			Subsystem: "scheduler",
			Name:      "tasks_completed_total",
			Help:      "Total number of queries that finished executing, by outcome.",
		}, []string{"outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asyncsql",
			Subsystem: "scheduler",
			Name:      "deliveries_total",
			Help:      "Total number of finished tasks retired by the collector, by delivery status.",
		}, []string{"status"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asyncsql",
			Subsystem: "scheduler",
			Name:      "query_duration_seconds",
			Help:      "Time spent executing a query on a bound connection.",
			Buckets:   prometheus.DefBuckets,
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asyncsql",
			Subsystem: "scheduler",
			Name:      "tasks_pending",
			Help:      "Number of tasks waiting for an idle connection.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asyncsql",
			Subsystem: "scheduler",
			Name:      "tasks_running",
			Help:      "Number of tasks bound to a connection.",
		}),
	}
	reg.MustRegister(m.enqueued, m.completed, m.deliveries, m.queryDuration, m.pending, m.running)
	return m
}

func (m *Metrics) taskEnqueued() {
	if m == nil {
		return
	}
	m.enqueued.Inc()
	m.pending.Inc()
}

func (m *Metrics) taskStarted() {
	if m == nil {
		return
	}
	m.pending.Dec()
	m.running.Inc()
}

func (m *Metrics) taskFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.running.Dec()
	m.completed.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) taskRetired(status string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(status).Inc()
}
