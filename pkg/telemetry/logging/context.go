package logging

import (
	"context"
)

// Context keys for values the handler lifts into log entries.
type contextKey string

const (
	// UserKey is the context key for the acting user (the "User:" segment).
	UserKey contextKey = "user"

	// RunIDKey is the context key for processing run identifiers.
	RunIDKey contextKey = "run_id"

	// ProviderKey is the context key for provider names.
	ProviderKey contextKey = "provider"
)

// WithUser adds an actor identifier to the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the actor identifier from the context.
func GetUser(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if user, ok := ctx.Value(UserKey).(string); ok {
		return user
	}
	return ""
}

// WithRunID adds a processing run identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the processing run identifier from the context.
func GetRunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithProvider adds a provider name to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// GetProvider retrieves the provider name from the context.
func GetProvider(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if provider, ok := ctx.Value(ProviderKey).(string); ok {
		return provider
	}
	return ""
}

// extractContextFields returns the context values that are added to an
// entry's context object. The actor is not included; it has its own segment.
func extractContextFields(ctx context.Context) map[string]any {
	fields := make(map[string]any)

	if runID := GetRunID(ctx); runID != "" {
		fields["run_id"] = runID
	}

	if provider := GetProvider(ctx); provider != "" {
		fields["provider"] = provider
	}

	return fields
}
