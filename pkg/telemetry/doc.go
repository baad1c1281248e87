// Package telemetry groups the observability packages of autoseo.
//
// # Components
//
//   - logging: the persistent activity log, with redaction, rotation and
//     paginated queries
//   - alert: mail, webhook and MQTT delivery of error-level log entries
//   - metrics: Prometheus counters and histograms for provider calls and
//     processing runs
//   - health: readiness checks behind the admin server's /ready endpoint
//
// # Wiring
//
//	sink, _ := alert.FromConfig(cfg.Alerts)
//	logger, _ := logging.New(logging.Config{File: cfg.Logging.File, Alerts: sink})
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//
//	checker := health.New(2 * time.Second)
//	checker.Register("activity_log", func(ctx context.Context) error {
//	    _, err := logger.GetLogs(1)
//	    return err
//	})
package telemetry
