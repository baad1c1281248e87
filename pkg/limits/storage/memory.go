package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-memory storage.
// This is the default backend and provides fast access with no persistence.
// All data is lost when the process exits.
//
// MemoryBackend is thread-safe and supports concurrent access using sync.RWMutex.
// States are copied on the way in and out so callers never share them.
type MemoryBackend struct {
	// states maps provider identifiers to their state.
	states map[string]*LimitState

	// mu protects access to states map.
	mu sync.RWMutex

	// cleanupInterval is how often to run cleanup.
	cleanupInterval time.Duration

	// done signals the cleanup goroutine to stop.
	done      chan struct{}
	closeOnce sync.Once
}

// MemoryBackendConfig configures the memory backend.
type MemoryBackendConfig struct {
	// CleanupInterval is how often to drop expired windows.
	// Default: 1 minute
	CleanupInterval time.Duration

	// RetentionPeriod is how long a window is kept after it opens.
	// Default: 70 seconds
	RetentionPeriod time.Duration
}

// DefaultRetentionPeriod is how long a counting window is kept.
const DefaultRetentionPeriod = 70 * time.Second

// NewMemoryBackend creates a new in-memory storage backend with default settings.
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendWithConfig(MemoryBackendConfig{})
}

// NewMemoryBackendWithConfig creates a new in-memory backend with custom configuration.
func NewMemoryBackendWithConfig(cfg MemoryBackendConfig) *MemoryBackend {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.RetentionPeriod == 0 {
		cfg.RetentionPeriod = DefaultRetentionPeriod
	}

	backend := &MemoryBackend{
		states:          make(map[string]*LimitState),
		cleanupInterval: cfg.CleanupInterval,
		done:            make(chan struct{}),
	}

	go backend.cleanupLoop(cfg.RetentionPeriod)

	return backend
}

// Save persists the state for a provider.
func (m *MemoryBackend) Save(ctx context.Context, state *LimitState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	stored := state.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[state.Provider] = stored
	return nil
}

// Load retrieves the state for a provider.
func (m *MemoryBackend) Load(ctx context.Context, provider string) (*LimitState, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.states[provider].Clone(), nil
}

// Update applies fn to the provider's state under the backend lock.
func (m *MemoryBackend) Update(ctx context.Context, provider string, fn UpdateFunc) error {
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.states[provider].Clone()
	if state == nil {
		state = &LimitState{Provider: provider}
	}
	save, err := fn(state)
	if err != nil || !save {
		return err
	}

	state.Provider = provider
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	m.states[provider] = state
	return nil
}

// Delete removes the state for a provider.
func (m *MemoryBackend) Delete(ctx context.Context, provider string) error {
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, provider)
	return nil
}

// List returns every stored state ordered by provider.
func (m *MemoryBackend) List(ctx context.Context) ([]*LimitState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]*LimitState, 0, len(m.states))
	for _, state := range m.states {
		states = append(states, state.Clone())
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Provider < states[j].Provider
	})
	return states, nil
}

// Cleanup drops windows that started before olderThan.
func (m *MemoryBackend) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for provider, state := range m.states {
		if state.Window != nil && state.Window.Start.Before(olderThan) {
			state.Window = nil
			dropped++
		}
		if state.empty() {
			delete(m.states, provider)
		}
	}

	return dropped, nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryBackend) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// Size returns the current number of stored states.
func (m *MemoryBackend) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

// cleanupLoop runs periodic cleanup of expired windows.
func (m *MemoryBackend) cleanupLoop(retentionPeriod time.Duration) {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-retentionPeriod)
			_, _ = m.Cleanup(context.Background(), cutoff)
		case <-m.done:
			return
		}
	}
}
