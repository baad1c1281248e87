package anthropic

import (
	"context"
	"log/slog"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/providers"
)

const (
	// Name is the provider identifier.
	Name = config.ProviderAnthropic

	// DisplayName is used in log messages and errors.
	DisplayName = "Anthropic"

	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"
)

// Provider is the Anthropic text completion provider.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Anthropic provider instance.
func NewProvider(cfg providers.ProviderConfig, deps providers.Dependencies) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: Name,
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}
	if cfg.Name == "" {
		cfg.Name = Name
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = DisplayName
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	p := &Provider{HTTPProvider: providers.NewHTTPProvider(cfg, deps)}

	slog.Debug("Anthropic provider initialized",
		"provider", cfg.Name,
		"base_url", cfg.BaseURL,
		"model", cfg.Model,
	)

	return p, nil
}

// Call sends prompt to /v1/complete.
func (p *Provider) Call(ctx context.Context, prompt string) (string, error) {
	cfg := p.Config()
	return p.Execute(ctx, providers.Request{
		URL: cfg.BaseURL + "/v1/complete",
		Headers: map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": DefaultAnthropicVersion,
		},
		Body:    buildRequest(cfg, prompt),
		Extract: extractText,
	})
}
