package providerfactory

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/providers"
)

// ErrNoAPIKey is returned by LoadFromConfig when no provider has credentials.
var ErrNoAPIKey = errors.New("no provider has an API key configured")

// Manager holds the configured providers and their shared dependencies.
//
// Manager is thread-safe and can be used concurrently.
type Manager struct {
	providers map[string]providers.Provider
	deps      providers.Dependencies
	mu        sync.RWMutex
}

// NewManager creates a new provider manager. deps are passed to every
// provider it creates.
func NewManager(deps providers.Dependencies) *Manager {
	return &Manager{
		providers: make(map[string]providers.Provider),
		deps:      deps,
	}
}

// AddProvider creates and adds a provider. An existing provider with the
// same name is replaced and closed.
func (m *Manager) AddProvider(name string, cfg config.ProviderConfig) error {
	provider, err := NewProvider(name, cfg, m.deps)
	if err != nil {
		return fmt.Errorf("failed to add provider %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name = provider.Name()
	if existing, ok := m.providers[name]; ok {
		slog.Warn("replacing existing provider", "name", name)
		existing.Close()
	}
	m.providers[name] = provider

	slog.Info("provider added to manager",
		"name", name,
		"total_providers", len(m.providers),
	)
	return nil
}

// RemoveProvider removes a provider from the manager and closes it.
func (m *Manager) RemoveProvider(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.ToLower(name)
	provider, ok := m.providers[name]
	if !ok {
		return fmt.Errorf("provider %q not found", name)
	}

	if err := provider.Close(); err != nil {
		slog.Error("error closing provider", "name", name, "error", err)
	}
	delete(m.providers, name)

	slog.Info("provider removed from manager",
		"name", name,
		"remaining_providers", len(m.providers),
	)
	return nil
}

// GetProvider returns a provider by name.
func (m *Manager) GetProvider(name string) (providers.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provider, ok := m.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured (available: %s)", name, strings.Join(m.namesLocked(), ", "))
	}
	return provider, nil
}

// GetProviderNames returns the configured provider names, sorted.
func (m *Manager) GetProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.namesLocked()
}

func (m *Manager) namesLocked() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderCount returns the total number of providers.
func (m *Manager) ProviderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.providers)
}

// LoadFromConfig adds every provider in cfg that has an API key. Providers
// without a key are skipped. Construction errors are collected and returned
// as a single error.
func (m *Manager) LoadFromConfig(cfg *config.Config) error {
	var errs []error
	loaded := 0

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pc := cfg.Providers[name]
		if pc.APIKey == "" {
			slog.Debug("provider skipped, no API key", "name", name)
			continue
		}
		if err := m.AddProvider(name, pc); err != nil {
			errs = append(errs, err)
			slog.Error("failed to load provider",
				"name", name,
				"error", err,
			)
			continue
		}
		loaded++
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to load %d provider(s): %w", len(errs), errors.Join(errs...))
	}
	if loaded == 0 {
		return ErrNoAPIKey
	}

	slog.Info("all providers loaded successfully", "count", loaded)
	return nil
}

// Close closes all providers.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", name, err))
		}
	}
	m.providers = make(map[string]providers.Provider)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing providers: %w", errors.Join(errs...))
	}

	slog.Info("provider manager closed")
	return nil
}

// GetHealthSummary returns a summary of provider health status.
func (m *Manager) GetHealthSummary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.providers),
		Details: make(map[string]providers.ProviderHealth),
	}

	for name, provider := range m.providers {
		health := provider.Health()
		summary.Details[name] = health

		if health.IsHealthy {
			summary.Healthy++
		}
	}

	summary.Unhealthy = summary.Total - summary.Healthy
	return summary
}

// HealthSummary provides an overview of provider health across the manager.
type HealthSummary struct {
	// Total is the total number of providers
	Total int `json:"total"`

	// Healthy is the number of healthy providers
	Healthy int `json:"healthy"`

	// Unhealthy is the number of unhealthy providers
	Unhealthy int `json:"unhealthy"`

	// Details contains per-provider health information
	Details map[string]providers.ProviderHealth `json:"details"`
}
