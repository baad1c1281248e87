package openai

import (
	"context"
	"log/slog"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/providers"
)

const (
	// Name is the provider identifier.
	Name = config.ProviderOpenAI

	// DisplayName is used in log messages and errors.
	DisplayName = "OpenAI"

	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Provider is the OpenAI chat completions provider.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new OpenAI provider instance.
func NewProvider(cfg providers.ProviderConfig, deps providers.Dependencies) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: Name,
			Field:    "api_key",
			Message:  "API key is required for OpenAI",
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

	slog.Debug("OpenAI provider initialized",
		"provider", cfg.Name,
		"base_url", cfg.BaseURL,
		"model", cfg.Model,
	)

	return p, nil
}

// Call sends prompt as a single user message to /chat/completions.
func (p *Provider) Call(ctx context.Context, prompt string) (string, error) {
	cfg := p.Config()
	return p.Execute(ctx, providers.Request{
		URL:     cfg.BaseURL + "/chat/completions",
		Body:    buildRequest(cfg, prompt),
		Extract: extractText,
	})
}
