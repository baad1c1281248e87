package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"datolab/autoseo/pkg/telemetry/alert"
)

// Logger is the persistent activity log: one formatted line per entry in a
// size-rotated file, with an alert on every error entry. It is safe for
// concurrent use.
type Logger struct {
	// slog is the structured logger writing through the store handler
	slog *slog.Logger

	// store is the log file and its backups
	store *FileStore

	// handler is the root store handler
	handler *Handler
}

// Config contains configuration for the Logger.
type Config struct {
	// File is the log file path.
	File string

	// MaxSize is the rotation ceiling in bytes (default 5 MiB).
	MaxSize int64

	// MaxBackups is how many rotated files to keep (default 5).
	MaxBackups int

	// RotateOnWrite checks the ceiling before each append.
	RotateOnWrite bool

	// Redact enables credential redaction of messages and context values.
	Redact bool

	// RedactPatterns adds named regular expressions to the redactor.
	RedactPatterns map[string]string

	// Console mirrors entries to a text handler on this writer (nil disables).
	Console io.Writer

	// ConsoleLevel is the minimum level mirrored to Console
	// ("debug", "info", "warn", "error").
	ConsoleLevel string

	// SiteName prefixes alert subjects.
	SiteName string

	// Alerts receives error entries. Nil disables alerting.
	Alerts alert.Sink

	// Metrics receives entry, rotation, and alert counts. Optional.
	Metrics Recorder

	// Now overrides the clock. Used by tests.
	Now func() time.Time
}

// New creates a Logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "autoseo"
	}

	store, err := NewFileStore(StoreConfig{
		Path:          cfg.File,
		MaxSize:       cfg.MaxSize,
		MaxBackups:    cfg.MaxBackups,
		RotateOnWrite: cfg.RotateOnWrite,
		Now:           cfg.Now,
	})
	if err != nil {
		return nil, err
	}

	var redactor *Redactor
	if cfg.Redact {
		redactor = NewRedactor(cfg.RedactPatterns)
	}

	var console slog.Handler
	if cfg.Console != nil {
		level, err := parseSlogLevel(cfg.ConsoleLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid console level: %w", err)
		}
		console = slog.NewTextHandler(cfg.Console, &slog.HandlerOptions{Level: level})
	}

	h := &Handler{
		store:    store,
		sink:     cfg.Alerts,
		redactor: redactor,
		metrics:  cfg.Metrics,
		console:  console,
		siteName: cfg.SiteName,
		now:      cfg.Now,
	}

	return &Logger{
		slog:    slog.New(h),
		store:   store,
		handler: h,
	}, nil
}

// Slog returns a *slog.Logger that writes to the log store.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Log appends one entry. Fields become the entry's context object.
func (l *Logger) Log(ctx context.Context, level Level, message string, fields map[string]any) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.slog.LogAttrs(ctx, level.slogLevel(), message, fieldAttrs(fields)...)
}

// Info appends an info entry.
func (l *Logger) Info(ctx context.Context, message string, fields map[string]any) {
	l.Log(ctx, LevelInfo, message, fields)
}

// Warning appends a warning entry.
func (l *Logger) Warning(ctx context.Context, message string, fields map[string]any) {
	l.Log(ctx, LevelWarning, message, fields)
}

// Error appends an error entry, which also dispatches an alert.
func (l *Logger) Error(ctx context.Context, message string, fields map[string]any) {
	l.Log(ctx, LevelError, message, fields)
}

// LogAPIError records a failed provider call at error level with the
// standard {api, request_data} context.
func (l *Logger) LogAPIError(ctx context.Context, api string, message string, requestData any) {
	l.Log(ctx, LevelError, fmt.Sprintf("API Error (%s): %s", api, message), map[string]any{
		"api":          api,
		"request_data": requestData,
	})
}

// GetLogs returns the log file contents. maxLines of 0 returns everything;
// otherwise the most recent maxLines lines.
func (l *Logger) GetLogs(maxLines int) (string, error) {
	lines, err := l.store.Lines(maxLines)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// ClearLogs empties the log file.
func (l *Logger) ClearLogs() error {
	return l.store.Clear()
}

// RotateIfNeeded rotates the log file when it exceeds the size ceiling.
func (l *Logger) RotateIfNeeded() (bool, error) {
	rotated, err := l.store.RotateIfNeeded()
	if rotated && l.handler.metrics != nil {
		l.handler.metrics.RecordLogRotation()
	}
	return rotated, err
}

// Store returns the underlying file store.
func (l *Logger) Store() *FileStore {
	return l.store
}

// fieldAttrs converts a field map into attrs in key order.
func fieldAttrs(fields map[string]any) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return attrs
}

// parseSlogLevel parses a console log level string into slog.Level.
func parseSlogLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}
