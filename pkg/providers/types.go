package providers

import (
	"encoding/json"
	"strings"
	"time"

	"datolab/autoseo/pkg/config"
)

// ProviderConfig contains the settings for one provider, resolved from the
// application configuration.
type ProviderConfig struct {
	// Name is the lowercase provider identifier ("openai")
	Name string

	// DisplayName is used in log messages and errors ("OpenAI")
	DisplayName string

	// APIKey is the bearer credential
	APIKey string

	// BaseURL is the API root without a trailing slash
	BaseURL string

	// Model is the model identifier sent with each request
	Model string

	// MaxTokens caps the completion length
	MaxTokens int

	// Temperature is the sampling temperature
	Temperature float64

	// MaxRetries is the total number of attempts per call
	MaxRetries int

	// Timeout is the per-attempt HTTP timeout
	Timeout time.Duration

	// Backoff controls the delay between attempts
	Backoff BackoffConfig

	// StopSequences halt generation (Anthropic only)
	StopSequences []string
}

// BackoffConfig is the exponential delay schedule between attempts.
type BackoffConfig struct {
	Base       time.Duration
	Multiplier float64
	Max        time.Duration
}

// FromConfig resolves the configuration for provider name. Missing values
// take the package defaults from config.
func FromConfig(name string, cfg config.ProviderConfig, display string) ProviderConfig {
	pc := ProviderConfig{
		Name:          strings.ToLower(name),
		DisplayName:   display,
		APIKey:        cfg.APIKey,
		BaseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		Model:         cfg.Model,
		MaxTokens:     cfg.MaxTokens,
		Temperature:   config.DefaultProviderTemperature,
		MaxRetries:    cfg.MaxRetries,
		Timeout:       cfg.Timeout,
		StopSequences: cfg.StopSequences,
		Backoff: BackoffConfig{
			Base:       cfg.Backoff.Base,
			Multiplier: cfg.Backoff.Multiplier,
			Max:        cfg.Backoff.Max,
		},
	}
	if cfg.Temperature != nil {
		pc.Temperature = *cfg.Temperature
	}
	pc.applyDefaults()
	return pc
}

// applyDefaults fills zero values.
func (c *ProviderConfig) applyDefaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = config.DefaultProviderMaxTokens
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = config.DefaultProviderMaxRetries
	}
	// Every call makes at least one attempt.
	if c.MaxRetries < 0 {
		c.MaxRetries = 1
	}
	if c.Timeout == 0 {
		c.Timeout = config.DefaultProviderTimeout
	}
	if c.Backoff.Base == 0 {
		c.Backoff.Base = config.DefaultBackoffBase
	}
	if c.Backoff.Multiplier == 0 {
		c.Backoff.Multiplier = config.DefaultBackoffMultiplier
	}
	if c.Backoff.Max == 0 {
		c.Backoff.Max = config.DefaultBackoffMax
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Name
	}
}

// Request is one provider call prepared by a provider variant.
type Request struct {
	// URL is the full endpoint
	URL string

	// Headers are added to the Authorization and Content-Type headers
	Headers map[string]string

	// Body is encoded as the JSON request body
	Body any

	// Extract returns the generated text from a 200 response body. An error
	// marks the response as malformed.
	Extract func(body []byte) (string, error)
}

// ProviderHealth tracks the outcome of recent calls to a provider.
type ProviderHealth struct {
	// IsHealthy is false after three consecutive exhausted calls
	IsHealthy bool `json:"healthy"`

	// LastCheck is the time of the last completed call
	LastCheck time.Time `json:"last_check"`

	// LastError is the most recent call error (nil if healthy)
	LastError error `json:"-"`

	// ConsecutiveFailures counts sequential exhausted calls
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastSuccessfulRequest is the time of the last successful call
	LastSuccessfulRequest time.Time `json:"last_successful_request"`

	// TotalRequests is the total number of calls that reached the network
	TotalRequests int64 `json:"total_requests"`

	// FailedRequests is the number of those calls that failed
	FailedRequests int64 `json:"failed_requests"`
}

// MarshalJSON includes LastError as a string.
func (h ProviderHealth) MarshalJSON() ([]byte, error) {
	type alias ProviderHealth
	out := struct {
		alias
		LastError string `json:"last_error,omitempty"`
	}{alias: alias(h)}
	if h.LastError != nil {
		out.LastError = h.LastError.Error()
	}
	return json.Marshal(out)
}
