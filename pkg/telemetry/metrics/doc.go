// Package metrics provides Prometheus metrics collection for autoseo.
//
// # Overview
//
// The Collector registers every metric on its own registry and implements the
// recorder interfaces of the packages it observes, so it can be handed to the
// providers, the rate limiter, the activity log, and the processing driver
// without those packages importing Prometheus.
//
// # Metrics Categories
//
//   - Provider Metrics: calls and attempts by outcome, attempt latency
//   - Limiter Metrics: allow/deny decisions and the current ceilings
//   - Log Metrics: entries by level, rotations, alert deliveries
//   - Driver Metrics: items processed, terms assigned, suggestions rejected
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//
//	limiter := ratelimit.New(backend, ratelimit.Config{Metrics: collector})
//	http.Handle("/metrics", collector.Handler())
//
// When metrics are disabled every Record method is a no-op.
package metrics
