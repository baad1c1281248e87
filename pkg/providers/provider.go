package providers

import (
	"context"
	"net/http"
	"time"

	"datolab/autoseo/pkg/telemetry/logging"
)

// Provider is the interface every LLM provider variant implements.
//
// Call sends one prompt and returns the trimmed generated text. It checks the
// rate gate first, then makes up to MaxRetries attempts with an exponential
// delay between them. Every failure is returned as a *CallError.
//
// Example usage:
//
//	text, err := provider.Call(ctx, prompt)
//	if providers.IsKind(err, providers.KindRateLimited) {
//	    // try again after the window resets
//	}
type Provider interface {
	// Call sends prompt to the provider and returns the generated text.
	Call(ctx context.Context, prompt string) (string, error)

	// Name returns the lowercase provider identifier ("openai").
	Name() string

	// Health returns the outcome of recent calls.
	Health() ProviderHealth

	// Close releases idle connections.
	Close() error
}

// RateGate admits or denies a call before any request is sent.
// *ratelimit.Limiter implements it.
type RateGate interface {
	CanMakeRequest(ctx context.Context, provider string) bool
}

// EventLogger receives per-attempt and final call entries.
// *logging.Logger implements it.
type EventLogger interface {
	Log(ctx context.Context, level logging.Level, message string, fields map[string]any)
	LogAPIError(ctx context.Context, api string, message string, requestData any)
}

// Recorder receives attempt and call outcomes for metrics.
type Recorder interface {
	RecordAttempt(provider, outcome string, duration time.Duration)
	RecordCall(provider, outcome string)
}

// Sleeper waits between attempts.
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleepFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// ContextSleeper sleeps on a timer and wakes early when ctx is done.
var ContextSleeper Sleeper = SleepFunc(func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
})

// Dependencies are the collaborators shared by every provider.
type Dependencies struct {
	// Gate is consulted before each call. Nil admits every call.
	Gate RateGate

	// Logger receives attempt and call entries. Optional.
	Logger EventLogger

	// Metrics receives attempt and call outcomes. Optional.
	Metrics Recorder

	// Sleeper waits between attempts (default ContextSleeper).
	Sleeper Sleeper

	// Client overrides the HTTP client. Its Timeout is left unchanged.
	Client *http.Client
}
