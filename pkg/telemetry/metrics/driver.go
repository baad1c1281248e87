package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"datolab/autoseo/pkg/config"
)

// DriverMetrics tracks processing runs.
//
// Metrics:
//   - autoseo_items_total: Items by outcome ("processed"/"failed")
//   - autoseo_terms_assigned_total: Terms assigned by kind ("category"/"tag")
//   - autoseo_suggestions_rejected_total: Suggestions rejected by kind
//   - autoseo_run_duration_seconds: Processing run duration
type DriverMetrics struct {
	items    *prometheus.CounterVec
	terms    *prometheus.CounterVec
	rejected *prometheus.CounterVec
	runs     prometheus.Histogram
}

// NewDriverMetrics creates and registers driver metrics with the provided registry.
func NewDriverMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DriverMetrics {
	dm := &DriverMetrics{
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "items_total",
				Help:      "Total number of content items handled by outcome",
			},
			[]string{"outcome"},
		),

		terms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "terms_assigned_total",
				Help:      "Total number of terms assigned to items",
			},
			[]string{"kind"},
		),

		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "suggestions_rejected_total",
				Help:      "Total number of suggestions rejected by validation",
			},
			[]string{"kind"},
		),

		// Runs are dominated by provider latency and backoff.
		runs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Processing run duration in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
	}

	registry.MustRegister(dm.items, dm.terms, dm.rejected, dm.runs)
	return dm
}

// RecordItem counts one item.
func (dm *DriverMetrics) RecordItem(outcome string) {
	dm.items.WithLabelValues(outcome).Inc()
}

// RecordTerms adds n assigned terms.
func (dm *DriverMetrics) RecordTerms(kind string, n int) {
	if n > 0 {
		dm.terms.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordRejected adds n rejected suggestions.
func (dm *DriverMetrics) RecordRejected(kind string, n int) {
	if n > 0 {
		dm.rejected.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordRun observes one run duration.
func (dm *DriverMetrics) RecordRun(duration time.Duration) {
	dm.runs.Observe(duration.Seconds())
}
