package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"datolab/autoseo/pkg/config"
)

// LogMetrics tracks the activity log.
//
// Metrics:
//   - autoseo_log_entries_total: Entries written by level
//   - autoseo_log_rotations_total: Log file rotations
//   - autoseo_alerts_total: Alert deliveries by result ("delivered"/"failed")
type LogMetrics struct {
	entries   *prometheus.CounterVec
	rotations prometheus.Counter
	alerts    *prometheus.CounterVec
}

// NewLogMetrics creates and registers log metrics with the provided registry.
func NewLogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LogMetrics {
	lm := &LogMetrics{
		entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "log_entries_total",
				Help:      "Total number of activity log entries by level",
			},
			[]string{"level"},
		),

		rotations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "log_rotations_total",
				Help:      "Total number of activity log rotations",
			},
		),

		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "alerts_total",
				Help:      "Total number of alert deliveries by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(lm.entries, lm.rotations, lm.alerts)
	return lm
}

// RecordEntry counts one entry.
func (lm *LogMetrics) RecordEntry(level string) {
	lm.entries.WithLabelValues(level).Inc()
}

// RecordRotation counts one rotation.
func (lm *LogMetrics) RecordRotation() {
	lm.rotations.Inc()
}

// RecordAlert counts one delivery attempt.
func (lm *LogMetrics) RecordAlert(delivered bool) {
	result := "failed"
	if delivered {
		result = "delivered"
	}
	lm.alerts.WithLabelValues(result).Inc()
}
