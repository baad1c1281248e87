package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"datolab/autoseo/pkg/config"
)

// ProviderMetrics tracks LLM provider calls.
//
// Metrics:
//   - autoseo_provider_requests_total: Calls by provider and final outcome
//   - autoseo_provider_attempts_total: HTTP attempts by provider and outcome
//   - autoseo_provider_attempt_duration_seconds: Attempt latency
type ProviderMetrics struct {
	requests *prometheus.CounterVec
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_requests_total",
				Help:      "Total number of provider calls by final outcome",
			},
			[]string{"provider", "outcome"},
		),

		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_attempts_total",
				Help:      "Total number of HTTP attempts against providers by outcome",
			},
			[]string{"provider", "outcome"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_attempt_duration_seconds",
				Help:      "Provider HTTP attempt latency in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		pm.requests,
		pm.attempts,
		pm.latency,
	)

	return pm
}

// RecordAttempt records one attempt and its latency.
func (pm *ProviderMetrics) RecordAttempt(provider, outcome string, duration time.Duration) {
	pm.attempts.WithLabelValues(provider, outcome).Inc()
	pm.latency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCall records the final outcome of a call.
func (pm *ProviderMetrics) RecordCall(provider, outcome string) {
	pm.requests.WithLabelValues(provider, outcome).Inc()
}
