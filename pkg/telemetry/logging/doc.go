// Package logging provides the persistent activity log.
//
// # Overview
//
// The logging package implements a slog.Handler that writes one line per
// entry to a size-rotated file:
//
//	[2024-05-01 10:00:00] [warning] | No user | OpenAI API request failed | Context: {"api":"OpenAI","attempt":1}
//
// It provides:
//   - Three levels: info, warning, error
//   - An actor segment taken from the request context (WithUser)
//   - A sorted JSON context object, omitted when empty
//   - Credential redaction of messages and context values
//   - An alert for every error entry through an alert.Sink
//   - Rotation at 5 MiB into timestamped .bak files, keeping the 5 newest
//   - Filtered, paginated queries for the admin surface
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    File:          "logs/autoseo.log",
//	    RotateOnWrite: true,
//	    Redact:        true,
//	    Alerts:        sink,
//	})
//
//	logger.Info(ctx, "Rate limit updated", map[string]any{"api": "openai", "new_limit": 90})
//	logger.LogAPIError(ctx, "OpenAI", "max retries reached", requestBody)
//
//	// Or through slog
//	logger.Slog().WarnContext(ctx, "Tag rejected", "tag", "2024")
//
// # Alerting
//
// Alert delivery is synchronous and best-effort. A failed delivery is written
// to the log as a warning and is not retried; warnings never alert, so a
// broken sink cannot cause recursion.
package logging
