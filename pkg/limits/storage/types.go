package storage

import (
	"context"
	"time"
)

// Backend defines the interface for rate limit state persistence.
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Save persists the state for a provider, replacing any existing state.
	Save(ctx context.Context, state *LimitState) error

	// Load retrieves the state for a provider.
	// Returns nil if no state exists. Returns error on system failure.
	Load(ctx context.Context, provider string) (*LimitState, error)

	// Update reads the state for a provider, passes it to fn, and saves it
	// when fn returns true, all as one atomic step. fn receives an empty
	// state when none is stored. With a shared sqlite file the step holds
	// the database write lock, so it is atomic across processes too.
	Update(ctx context.Context, provider string, fn UpdateFunc) error

	// Delete removes the state for a provider. No-op if state doesn't exist.
	Delete(ctx context.Context, provider string) error

	// List returns the state of every provider, ordered by provider.
	List(ctx context.Context) ([]*LimitState, error)

	// Cleanup drops counting windows that started before olderThan.
	// Persisted ceilings are kept; states left with neither are removed.
	// Returns the number of windows dropped.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases any resources held by the backend.
	// The backend should not be used after calling Close.
	Close() error
}

// UpdateFunc mutates state in place and reports whether to save it.
type UpdateFunc func(state *LimitState) (bool, error)

// LimitState is the persisted state for a single provider.
type LimitState struct {
	// Provider is the lowercase provider identifier.
	Provider string

	// Limit is the administrator-set requests-per-minute ceiling.
	// Zero means no ceiling has been persisted.
	Limit int

	// Window is the current counting window, nil when none is open.
	Window *WindowState

	// UpdatedAt is when this state was last modified.
	UpdatedAt time.Time
}

// WindowState is a fixed counting window.
type WindowState struct {
	// Start is when the window opened.
	Start time.Time

	// Count is the number of requests admitted in the window.
	Count int
}

// Clone returns a deep copy of s.
func (s *LimitState) Clone() *LimitState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Window != nil {
		w := *s.Window
		c.Window = &w
	}
	return &c
}

// empty reports whether the state carries nothing worth keeping.
func (s *LimitState) empty() bool {
	return s.Limit == 0 && s.Window == nil
}
