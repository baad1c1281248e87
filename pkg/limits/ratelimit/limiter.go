package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"datolab/autoseo/pkg/limits/storage"
	"datolab/autoseo/pkg/telemetry/logging"
)

// Limiter is a per-provider fixed-window request limiter.
//
// Each provider has one window of WindowLength. The first request after the
// window expires opens a new one with a count of 1; later requests are
// admitted while the count is below the provider's ceiling. Denied requests
// never change the window.
//
// Window state and persisted ceilings live in the storage backend, so a
// shared sqlite backend makes the limit hold across processes: each check
// and count runs as one backend Update, which sqlite performs under its
// write lock. Within one process each provider also has its own mutex.
type Limiter struct {
	backend  storage.Backend
	defaults map[string]int
	logger   EventLogger
	metrics  Recorder
	now      func() time.Time

	// overrides are the configured ceilings, replaced on config reload
	overrides   map[string]int
	overridesMu sync.RWMutex

	// locks holds one mutex per provider
	locks   map[string]*sync.Mutex
	locksMu sync.Mutex
}

// Config contains configuration for the Limiter.
type Config struct {
	// Backend stores windows and persisted ceilings (default: memory).
	Backend storage.Backend

	// Overrides are configured per-provider ceilings.
	Overrides map[string]int

	// Defaults are the built-in per-provider ceilings.
	Defaults map[string]int

	// Logger receives activity log entries. Optional.
	Logger EventLogger

	// Metrics receives decisions. Optional.
	Metrics Recorder

	// Now overrides the clock. Used by tests.
	Now func() time.Time
}

// NewLimiter creates a limiter with the given configuration.
func NewLimiter(cfg Config) *Limiter {
	if cfg.Backend == nil {
		cfg.Backend = storage.NewMemoryBackend()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Limiter{
		backend:   cfg.Backend,
		defaults:  normalize(cfg.Defaults),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
		overrides: normalize(cfg.Overrides),
		locks:     make(map[string]*sync.Mutex),
	}
}

// CanMakeRequest reports whether a request to provider is admitted, counting
// it when it is. A backend failure admits the request.
func (l *Limiter) CanMakeRequest(ctx context.Context, provider string) bool {
	provider = normalizeID(provider)
	now := l.now()

	mu := l.lock(provider)
	mu.Lock()
	defer mu.Unlock()

	var (
		decided, allowed, opened bool
		limit                    int
		denied                   storage.WindowState
	)
	err := l.backend.Update(ctx, provider, func(state *storage.LimitState) (bool, error) {
		decided = true
		limit, _ = l.resolveLimit(provider, state)
		window := l.liveWindow(state, now)

		switch {
		case window == nil || now.Sub(window.Start) >= WindowLength:
			state.Window = &storage.WindowState{Start: now, Count: 1}
			opened = true
		case window.Count < limit:
			window.Count++
			state.Window = window
		default:
			denied = *window
			return false, nil
		}
		allowed = true
		state.UpdatedAt = now
		return true, nil
	})
	if err != nil && !decided {
		l.log(ctx, logging.LevelWarning, "Rate limit state unavailable, allowing request", map[string]any{
			"api":   provider,
			"error": err.Error(),
		})
		l.record(provider, true)
		return true
	}
	if err != nil {
		l.saveFailed(ctx, provider, err)
	}

	if !allowed {
		l.log(ctx, logging.LevelWarning, fmt.Sprintf("Rate limit exceeded for %s", provider), map[string]any{
			"api":               provider,
			"limit":             limit,
			"current_count":     denied.Count,
			"window_start":      denied.Start.Format(logging.TimestampLayout),
			"seconds_remaining": ceilSeconds(denied.Start.Add(WindowLength).Sub(now)),
		})
		l.record(provider, false)
		return false
	}

	if opened {
		l.log(ctx, logging.LevelInfo, fmt.Sprintf("New rate limit window started for %s", provider), map[string]any{
			"api":   provider,
			"limit": limit,
		})
	}
	l.record(provider, true)
	return true
}

// RateLimit returns the effective ceiling for provider.
func (l *Limiter) RateLimit(ctx context.Context, provider string) int {
	provider = normalizeID(provider)
	state, _ := l.load(ctx, provider)
	limit, _ := l.resolveLimit(provider, state)
	return limit
}

// SetRateLimit persists a ceiling for provider. Ceilings below 1 are
// rejected with ErrInvalidLimit.
func (l *Limiter) SetRateLimit(ctx context.Context, provider string, limit int) error {
	provider = normalizeID(provider)

	if limit < 1 {
		l.log(ctx, logging.LevelWarning, "Invalid rate limit rejected", map[string]any{
			"api":       provider,
			"new_limit": limit,
		})
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	mu := l.lock(provider)
	mu.Lock()
	defer mu.Unlock()

	var old int
	err := l.backend.Update(ctx, provider, func(state *storage.LimitState) (bool, error) {
		old, _ = l.resolveLimit(provider, state)
		state.Limit = limit
		state.UpdatedAt = l.now()
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist rate limit: %w", err)
	}

	l.log(ctx, logging.LevelInfo, "Rate limit updated", map[string]any{
		"api":       provider,
		"old_limit": old,
		"new_limit": limit,
	})
	if l.metrics != nil {
		l.metrics.RecordLimit(provider, limit)
	}
	return nil
}

// ResetCounter closes the open window for provider. The next request opens
// a new one.
func (l *Limiter) ResetCounter(ctx context.Context, provider string) error {
	provider = normalizeID(provider)

	mu := l.lock(provider)
	mu.Lock()
	defer mu.Unlock()

	state, err := l.load(ctx, provider)
	if err != nil {
		return fmt.Errorf("failed to load rate limit state: %w", err)
	}

	if state.Limit == 0 {
		if err := l.backend.Delete(ctx, provider); err != nil {
			return fmt.Errorf("failed to reset rate limit counter: %w", err)
		}
	} else {
		state.Window = nil
		state.UpdatedAt = l.now()
		if err := l.backend.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to reset rate limit counter: %w", err)
		}
	}

	l.log(ctx, logging.LevelInfo, fmt.Sprintf("Rate limit counter reset for %s", provider), map[string]any{
		"api": provider,
	})
	return nil
}

// ResetTime returns the time until the open window for provider ends, in
// whole seconds rounded up. It is 0 when no window is open.
func (l *Limiter) ResetTime(ctx context.Context, provider string) time.Duration {
	provider = normalizeID(provider)
	now := l.now()

	state, err := l.load(ctx, provider)
	if err != nil {
		return 0
	}
	window := l.liveWindow(state, now)
	if window == nil {
		return 0
	}
	return time.Duration(ceilSeconds(window.Start.Add(WindowLength).Sub(now))) * time.Second
}

// CurrentCount returns the number of requests admitted in the open window.
func (l *Limiter) CurrentCount(ctx context.Context, provider string) int {
	provider = normalizeID(provider)

	state, err := l.load(ctx, provider)
	if err != nil {
		return 0
	}
	window := l.liveWindow(state, l.now())
	if window == nil {
		return 0
	}
	return window.Count
}

// Status returns a snapshot of provider's limiter state.
func (l *Limiter) Status(ctx context.Context, provider string) (Status, error) {
	provider = normalizeID(provider)
	now := l.now()

	state, err := l.load(ctx, provider)
	if err != nil {
		return Status{}, fmt.Errorf("failed to load rate limit state: %w", err)
	}

	limit, source := l.resolveLimit(provider, state)
	status := Status{Provider: provider, Limit: limit, Source: source}

	if window := l.liveWindow(state, now); window != nil {
		start := window.Start
		status.CurrentCount = window.Count
		status.WindowStart = &start
		status.ResetSeconds = ceilSeconds(window.Start.Add(WindowLength).Sub(now))
	}
	return status, nil
}

// List returns the status of every provider with a built-in, configured, or
// stored state, ordered by provider.
func (l *Limiter) List(ctx context.Context) ([]Status, error) {
	names := make(map[string]struct{})
	for p := range l.defaults {
		names[p] = struct{}{}
	}
	l.overridesMu.RLock()
	for p := range l.overrides {
		names[p] = struct{}{}
	}
	l.overridesMu.RUnlock()

	states, err := l.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rate limit states: %w", err)
	}
	for _, s := range states {
		names[s.Provider] = struct{}{}
	}

	providers := make([]string, 0, len(names))
	for p := range names {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	statuses := make([]Status, 0, len(providers))
	for _, p := range providers {
		s, err := l.Status(ctx, p)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// ApplyOverrides replaces the configured ceilings. Persisted ceilings still
// take precedence.
func (l *Limiter) ApplyOverrides(overrides map[string]int) {
	normalized := normalize(overrides)

	l.overridesMu.Lock()
	l.overrides = normalized
	l.overridesMu.Unlock()

	if l.metrics != nil {
		for p, limit := range normalized {
			l.metrics.RecordLimit(p, limit)
		}
	}
}

// Cleanup drops windows older than WindowTTL from the backend.
func (l *Limiter) Cleanup(ctx context.Context) (int, error) {
	return l.backend.Cleanup(ctx, l.now().Add(-WindowTTL))
}

// Close releases the storage backend.
func (l *Limiter) Close() error {
	return l.backend.Close()
}

// load returns the stored state for provider, or a fresh empty one.
func (l *Limiter) load(ctx context.Context, provider string) (*storage.LimitState, error) {
	state, err := l.backend.Load(ctx, provider)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &storage.LimitState{Provider: provider}
	}
	return state, nil
}

// liveWindow returns the state's window unless it is past its TTL.
func (l *Limiter) liveWindow(state *storage.LimitState, now time.Time) *storage.WindowState {
	if state == nil || state.Window == nil {
		return nil
	}
	if now.Sub(state.Window.Start) >= WindowTTL {
		return nil
	}
	return state.Window
}

// resolveLimit applies persisted > configured > built-in > fallback.
func (l *Limiter) resolveLimit(provider string, state *storage.LimitState) (int, string) {
	if state != nil && state.Limit > 0 {
		return state.Limit, SourcePersisted
	}

	l.overridesMu.RLock()
	configured, ok := l.overrides[provider]
	l.overridesMu.RUnlock()
	if ok && configured > 0 {
		return configured, SourceConfig
	}

	if def, ok := l.defaults[provider]; ok && def > 0 {
		return def, SourceDefault
	}
	return FallbackLimit, SourceFallback
}

// lock returns the mutex for provider, creating it on first use.
func (l *Limiter) lock(provider string) *sync.Mutex {
	l.locksMu.Lock()
	defer l.locksMu.Unlock()

	mu, ok := l.locks[provider]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[provider] = mu
	}
	return mu
}

func (l *Limiter) saveFailed(ctx context.Context, provider string, err error) {
	l.log(ctx, logging.LevelWarning, "Failed to persist rate limit window", map[string]any{
		"api":   provider,
		"error": err.Error(),
	})
}

func (l *Limiter) log(ctx context.Context, level logging.Level, message string, fields map[string]any) {
	if l.logger != nil {
		l.logger.Log(ctx, level, message, fields)
	}
}

func (l *Limiter) record(provider string, allowed bool) {
	if l.metrics != nil {
		l.metrics.RecordDecision(provider, allowed)
	}
}

func normalizeID(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func normalize(limits map[string]int) map[string]int {
	out := make(map[string]int, len(limits))
	for p, limit := range limits {
		out[normalizeID(p)] = limit
	}
	return out
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
