package ratelimit

import (
	"context"
	"errors"
	"time"

	"datolab/autoseo/pkg/telemetry/logging"
)

const (
	// WindowLength is the length of a counting window.
	WindowLength = 60 * time.Second

	// WindowTTL is how long a window is retained after it opens. A window
	// older than this reads as absent.
	WindowTTL = WindowLength + 10*time.Second

	// FallbackLimit applies to providers with no persisted, configured, or
	// built-in ceiling.
	FallbackLimit = 30
)

// ErrInvalidLimit is returned by SetRateLimit for ceilings below 1.
var ErrInvalidLimit = errors.New("rate limit must be at least 1")

// EventLogger receives the limiter's activity log entries.
// *logging.Logger implements it.
type EventLogger interface {
	Log(ctx context.Context, level logging.Level, message string, fields map[string]any)
}

// Recorder receives limiter decisions for metrics.
type Recorder interface {
	RecordDecision(provider string, allowed bool)
	RecordLimit(provider string, limit int)
}

// Status is a snapshot of one provider's limiter state.
type Status struct {
	// Provider is the lowercase provider identifier.
	Provider string `json:"provider"`

	// Limit is the effective per-minute ceiling.
	Limit int `json:"limit"`

	// Source is where Limit came from: "persisted", "config", "default", or
	// "fallback".
	Source string `json:"source"`

	// CurrentCount is the number of requests admitted in the open window.
	CurrentCount int `json:"current_count"`

	// WindowStart is when the open window began, nil when none is open.
	WindowStart *time.Time `json:"window_start,omitempty"`

	// ResetSeconds is the whole seconds until the open window ends.
	ResetSeconds int `json:"reset_seconds"`
}

// Limit sources reported in Status.
const (
	SourcePersisted = "persisted"
	SourceConfig    = "config"
	SourceDefault   = "default"
	SourceFallback  = "fallback"
)
