package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRankingRefreshTotal     = "ranking_refresh_total"
	MetricRankingRefreshErrors    = "ranking_refresh_errors_total"
	MetricRankingRefreshDuration  = "ranking_refresh_duration_seconds"
	MetricRankingLastRefreshStamp = "ranking_last_refresh_timestamp"
	MetricRankingSetSize          = "ranking_set_size"
)

// Metrics contains Prometheus metrics for ranked-set refresh cycles.
// All operations are thread-safe.
type Metrics struct {
	refreshTotal         prometheus.Counter
	refreshErrors        *prometheus.CounterVec
	refreshDuration      prometheus.Histogram
	lastRefreshTimestamp prometheus.Gauge
	setSize              *prometheus.GaugeVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		refreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankingRefreshTotal,
			Help: "Total number of ranked-set refresh cycles",
		}),
		refreshErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankingRefreshErrors,
				Help: "Total number of ranked-set rebuild failures by set",
			},
			[]string{"set"},
		),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankingRefreshDuration,
			Help:    "Histogram of ranked-set refresh cycle duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}),
		lastRefreshTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricRankingLastRefreshStamp,
			Help: "Unix timestamp of the last ranked-set refresh cycle",
		}),
		setSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricRankingSetSize,
				Help: "Number of entries in each ranked set after the last refresh",
			},
			[]string{"set"},
		),
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

// IncRefreshTotal increments the refresh cycle counter.
func (m *Metrics) IncRefreshTotal() {
	m.refreshTotal.Inc()
}

// IncRefreshErrors increments the rebuild failure counter for a set.
func (m *Metrics) IncRefreshErrors(set string) {
	m.refreshErrors.WithLabelValues(set).Inc()
}

// ObserveRefreshDuration records a refresh cycle duration sample.
func (m *Metrics) ObserveRefreshDuration(seconds float64) {
	m.refreshDuration.Observe(seconds)
}

// SetLastRefreshTimestamp sets the last refresh timestamp gauge.
func (m *Metrics) SetLastRefreshTimestamp(timestamp float64) {
	m.lastRefreshTimestamp.Set(timestamp)
}

// SetRankedSetSize sets the entry count gauge for a set.
func (m *Metrics) SetRankedSetSize(set string, count float64) {
	m.setSize.WithLabelValues(set).Set(count)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.refreshTotal,
		m.refreshErrors,
		m.refreshDuration,
		m.lastRefreshTimestamp,
		m.setSize,
	}
}
