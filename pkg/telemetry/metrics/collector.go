package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"datolab/autoseo/pkg/config"
)

// Collector is the main orchestrator for all Prometheus metrics in autoseo.
// It manages metric registration and provides the Record methods the other
// packages call through their recorder interfaces.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	providerMetrics *ProviderMetrics
	limiterMetrics  *LimiterMetrics
	logMetrics      *LogMetrics
	driverMetrics   *DriverMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = append([]float64(nil), config.DefaultLatencyBuckets...)
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		providerMetrics: NewProviderMetrics(cfg, registry),
		limiterMetrics:  NewLimiterMetrics(cfg, registry),
		logMetrics:      NewLogMetrics(cfg, registry),
		driverMetrics:   NewDriverMetrics(cfg, registry),
	}
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.IsEnabled()
}

// RecordAttempt records one HTTP attempt against a provider.
//
// Parameters:
//   - provider: provider identifier (e.g., "openai")
//   - outcome: "success" or a failure kind such as "http_error"
//   - duration: time spent on the attempt
func (c *Collector) RecordAttempt(provider, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.RecordAttempt(provider, outcome, duration)
}

// RecordCall records the final outcome of a provider call.
func (c *Collector) RecordCall(provider, outcome string) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.RecordCall(provider, outcome)
}

// RecordDecision records a rate limiter decision.
func (c *Collector) RecordDecision(provider string, allowed bool) {
	if !c.enabled() {
		return
	}
	c.limiterMetrics.RecordDecision(provider, allowed)
}

// RecordLimit records the effective per-minute ceiling for a provider.
func (c *Collector) RecordLimit(provider string, limit int) {
	if !c.enabled() {
		return
	}
	c.limiterMetrics.RecordLimit(provider, limit)
}

// RecordLogEntry records one activity log entry.
func (c *Collector) RecordLogEntry(level string) {
	if !c.enabled() {
		return
	}
	c.logMetrics.RecordEntry(level)
}

// RecordLogRotation records one log file rotation.
func (c *Collector) RecordLogRotation() {
	if !c.enabled() {
		return
	}
	c.logMetrics.RecordRotation()
}

// RecordAlert records an alert delivery attempt.
func (c *Collector) RecordAlert(delivered bool) {
	if !c.enabled() {
		return
	}
	c.logMetrics.RecordAlert(delivered)
}

// RecordItem records one processed content item.
//
// Parameters:
//   - outcome: "processed" or "failed"
func (c *Collector) RecordItem(outcome string) {
	if !c.enabled() {
		return
	}
	c.driverMetrics.RecordItem(outcome)
}

// RecordTerms records terms assigned to an item.
//
// Parameters:
//   - kind: "category" or "tag"
//   - n: number of terms assigned
func (c *Collector) RecordTerms(kind string, n int) {
	if !c.enabled() {
		return
	}
	c.driverMetrics.RecordTerms(kind, n)
}

// RecordRejected records suggestions rejected by validation.
func (c *Collector) RecordRejected(kind string, n int) {
	if !c.enabled() {
		return
	}
	c.driverMetrics.RecordRejected(kind, n)
}

// RecordRun records the duration of a processing run.
func (c *Collector) RecordRun(duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.driverMetrics.RecordRun(duration)
}
