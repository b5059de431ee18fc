package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricStatsRecomputeTotal    = "stats_recompute_total"
	MetricStatsRecomputeErrors   = "stats_recompute_errors_total"
	MetricStatsRecomputeDuration = "stats_recompute_duration_seconds"
)

// Metrics contains Prometheus metrics for stats recomputation.
// All operations are thread-safe.
type Metrics struct {
	recomputeTotal    prometheus.Counter
	recomputeErrors   prometheus.Counter
	recomputeDuration prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricStatsRecomputeTotal,
			Help: "Total number of successful business stats recomputations",
		}),
		recomputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricStatsRecomputeErrors,
			Help: "Total number of failed business stats recomputations",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricStatsRecomputeDuration,
			Help:    "Histogram of business stats recomputation duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRecomputeTotal increments the recompute total counter.
func (m *Metrics) IncRecomputeTotal() {
	m.recomputeTotal.Inc()
}

// IncRecomputeErrors increments the recompute errors counter.
func (m *Metrics) IncRecomputeErrors() {
	m.recomputeErrors.Inc()
}

// ObserveRecomputeDuration records a recompute duration sample.
func (m *Metrics) ObserveRecomputeDuration(seconds float64) {
	m.recomputeDuration.Observe(seconds)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.recomputeTotal,
		m.recomputeErrors,
		m.recomputeDuration,
	}
}
