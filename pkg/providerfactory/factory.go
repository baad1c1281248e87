package providerfactory

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/providers"
	"datolab/autoseo/pkg/providers/anthropic"
	"datolab/autoseo/pkg/providers/cohere"
	"datolab/autoseo/pkg/providers/openai"
)

// Constructor builds one provider variant.
type Constructor func(cfg providers.ProviderConfig, deps providers.Dependencies) (providers.Provider, error)

type variant struct {
	display string
	build   Constructor
}

var variants = map[string]variant{
	config.ProviderOpenAI: {
		display: openai.DisplayName,
		build: func(cfg providers.ProviderConfig, deps providers.Dependencies) (providers.Provider, error) {
			return wrap(openai.NewProvider(cfg, deps))
		},
	},
	config.ProviderAnthropic: {
		display: anthropic.DisplayName,
		build: func(cfg providers.ProviderConfig, deps providers.Dependencies) (providers.Provider, error) {
			return wrap(anthropic.NewProvider(cfg, deps))
		},
	},
	config.ProviderCohere: {
		display: cohere.DisplayName,
		build: func(cfg providers.ProviderConfig, deps providers.Dependencies) (providers.Provider, error) {
			return wrap(cohere.NewProvider(cfg, deps))
		},
	},
}

// wrap converts a typed constructor result so a failed construction yields
// a nil interface.
func wrap[P providers.Provider](p P, err error) (providers.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewProvider creates the provider named name from its configuration.
//
// Supported providers:
//   - "openai": OpenAI chat completions
//   - "anthropic": Anthropic text completions
//   - "cohere": Cohere generate
//
// Example:
//
//	provider, err := providerfactory.NewProvider("openai", cfg.Providers["openai"], providers.Dependencies{
//	    Gate:   limiter,
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
func NewProvider(name string, cfg config.ProviderConfig, deps providers.Dependencies) (providers.Provider, error) {
	name = strings.ToLower(name)
	v, ok := variants[name]
	if !ok {
		return nil, &providers.ConfigError{
			Provider: name,
			Field:    "name",
			Message:  fmt.Sprintf("unsupported provider: %q (supported: %s)", name, strings.Join(Supported(), ", ")),
		}
	}

	slog.Debug("creating provider",
		"name", name,
		"base_url", cfg.BaseURL,
		"model", cfg.Model,
	)

	provider, err := v.build(providers.FromConfig(name, cfg, v.display), deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", name, err)
	}

	slog.Info("provider created successfully", "name", name)
	return provider, nil
}

// DisplayName returns the name used in log messages for provider, or the
// identifier itself when unknown.
func DisplayName(name string) string {
	if v, ok := variants[strings.ToLower(name)]; ok {
		return v.display
	}
	return name
}

// Supported returns the supported provider identifiers, sorted.
func Supported() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
