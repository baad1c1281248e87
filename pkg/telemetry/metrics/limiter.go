package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"datolab/autoseo/pkg/config"
)

// LimiterMetrics tracks rate limiter decisions.
//
// Metrics:
//   - autoseo_ratelimit_decisions_total: Decisions by provider ("allowed"/"denied")
//   - autoseo_ratelimit_limit: Effective per-minute ceiling by provider
type LimiterMetrics struct {
	decisions *prometheus.CounterVec
	limit     *prometheus.GaugeVec
}

// NewLimiterMetrics creates and registers limiter metrics with the provided registry.
func NewLimiterMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LimiterMetrics {
	lm := &LimiterMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_decisions_total",
				Help:      "Total number of rate limiter decisions",
			},
			[]string{"provider", "decision"},
		),

		limit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_limit",
				Help:      "Effective requests-per-minute ceiling",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(lm.decisions, lm.limit)
	return lm
}

// RecordDecision records one allow or deny decision.
func (lm *LimiterMetrics) RecordDecision(provider string, allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	lm.decisions.WithLabelValues(provider, decision).Inc()
}

// RecordLimit sets the ceiling gauge.
func (lm *LimiterMetrics) RecordLimit(provider string, limit int) {
	lm.limit.WithLabelValues(provider).Set(float64(limit))
}
