package config

import "time"

// Config is the root configuration structure for autoseo.
// It contains the provider integrations, rate limiting, the activity log,
// alerting, the content store, the processing driver, and the admin server.
type Config struct {
	// Providers contains configuration for the LLM provider integrations.
	// Keys are provider identifiers: "openai", "anthropic", "cohere".
	Providers map[string]ProviderConfig `yaml:"providers"`

	// DefaultProvider selects the provider used by the processing driver
	// when no provider is given on the command line.
	// Default: "openai"
	DefaultProvider string `yaml:"default_provider"`

	// RateLimits overrides the per-minute request ceiling per provider.
	// Ceilings persisted at runtime (ratelimit set) take precedence.
	RateLimits map[string]int `yaml:"rate_limits"`

	// RateLimitStore selects where rate limit windows and ceilings persist.
	RateLimitStore StoreConfig `yaml:"rate_limit_store"`

	// Logging contains the activity log and process logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Alerts contains the sinks notified on error-level log entries.
	Alerts AlertsConfig `yaml:"alerts"`

	// Content selects the content store the driver processes.
	Content StoreConfig `yaml:"content"`

	// SEO contains the processing driver configuration.
	SEO SEOConfig `yaml:"seo"`

	// Server contains the administrative HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Secrets configures ${secret:name} resolution in credential fields.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ProviderConfig contains configuration for a single LLM provider.
type ProviderConfig struct {
	// APIKey is the bearer credential. The OPENAI_API_KEY, ANTHROPIC_API_KEY
	// and COHERE_API_KEY environment variables take precedence.
	APIKey string `yaml:"api_key"`

	// BaseURL is the provider API root.
	// Default: the provider's public endpoint
	BaseURL string `yaml:"base_url"`

	// Model is the model identifier sent with each request.
	// Default: "gpt-4o" (openai), "claude-2.1" (anthropic), "command" (cohere)
	Model string `yaml:"model"`

	// MaxTokens caps the completion length.
	// Default: 150
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature. Nil means the default.
	// Default: 0.7
	Temperature *float64 `yaml:"temperature"`

	// MaxRetries is the total number of attempts per call.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// Timeout is the per-attempt HTTP timeout.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// Backoff controls the delay between attempts.
	Backoff BackoffConfig `yaml:"backoff"`

	// StopSequences halt generation (anthropic only).
	// Default: ["\n"] for anthropic
	StopSequences []string `yaml:"stop_sequences"`
}

// BackoffConfig controls the exponential delay between provider attempts.
// The n-th retry waits Base * Multiplier^(n-1), capped at Max.
type BackoffConfig struct {
	// Base is the delay before the first retry. Must exceed 1s.
	// Default: 4s
	Base time.Duration `yaml:"base"`

	// Multiplier is the growth factor per attempt. Must be at least 4.
	// Default: 4
	Multiplier float64 `yaml:"multiplier"`

	// Max caps a single delay.
	// Default: 5m
	Max time.Duration `yaml:"max"`
}

// SecretsConfig configures where ${secret:name} references in api_key,
// password and admin_token fields are resolved. The environment is
// consulted before the directory.
type SecretsConfig struct {
	// EnvPrefix prefixes the environment variable holding a secret:
	// "openai-api-key" is read from <prefix>OPENAI_API_KEY.
	// Default: "AUTOSEO_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir holds one file per secret, named after the secret. Empty
	// disables file lookup.
	Dir string `yaml:"dir"`
}

// StoreConfig selects a persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggingConfig configures the activity log and the process logger.
type LoggingConfig struct {
	// File is the activity log path.
	// Default: "logs/autoseo.log"
	File string `yaml:"file"`

	// MaxSize is the rotation ceiling in bytes.
	// Default: 5242880 (5 MiB)
	MaxSize int64 `yaml:"max_size"`

	// MaxBackups is how many rotated files are kept.
	// Default: 5
	MaxBackups int `yaml:"max_backups"`

	// RotateSchedule is the cron expression for the rotation check in serve
	// mode. Empty disables scheduled rotation.
	// Default: "@hourly"
	RotateSchedule string `yaml:"rotate_schedule"`

	// RotateOnWrite checks the ceiling before every append.
	// Default: true
	RotateOnWrite *bool `yaml:"rotate_on_write"`

	// Redact enables credential redaction in the activity log.
	// Default: true
	Redact *bool `yaml:"redact"`

	// Console mirrors activity log entries to stderr.
	// Default: true
	Console *bool `yaml:"console"`

	// Level is the process log level ("debug", "info", "warn", "error").
	// It also sets the console mirror level.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the process log format ("json" or "text").
	// Default: "text"
	Format string `yaml:"format"`
}

// AlertsConfig configures where error-level log entries are delivered.
type AlertsConfig struct {
	// SiteName prefixes alert subjects.
	// Default: "autoseo"
	SiteName string `yaml:"site_name"`

	// Mail delivers alerts by SMTP.
	Mail MailConfig `yaml:"mail"`

	// Webhook posts alerts as JSON.
	Webhook WebhookConfig `yaml:"webhook"`

	// MQTT publishes alerts to a broker topic.
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MailConfig configures SMTP alert delivery.
type MailConfig struct {
	Enabled bool `yaml:"enabled"`

	// Host is the SMTP server host.
	Host string `yaml:"host"`

	// Port is the SMTP server port.
	// Default: 587
	Port int `yaml:"port"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// From is the sender address.
	From string `yaml:"from"`

	// To lists the administrator addresses.
	To []string `yaml:"to"`

	// TLS is "mandatory", "opportunistic", or "none".
	// Default: "opportunistic"
	TLS string `yaml:"tls"`

	// Timeout bounds a delivery.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`
}

// WebhookConfig configures HTTP alert delivery.
type WebhookConfig struct {
	Enabled bool `yaml:"enabled"`

	// URL receives a POST with the alert as JSON.
	URL string `yaml:"url"`

	// Headers are added to every request.
	Headers map[string]string `yaml:"headers"`

	// Timeout bounds a delivery.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// MQTTConfig configures MQTT alert delivery.
type MQTTConfig struct {
	Enabled bool `yaml:"enabled"`

	// Broker is the broker host.
	Broker string `yaml:"broker"`

	// Port is the broker port.
	// Default: 1883
	Port int `yaml:"port"`

	// ClientID identifies this publisher.
	// Default: "autoseo-<unix time>"
	ClientID string `yaml:"client_id"`

	// Topic receives alert payloads.
	// Default: "autoseo/alerts"
	Topic string `yaml:"topic"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// QoS is the publish quality of service (0, 1 or 2).
	// Default: 1
	QoS *int `yaml:"qos"`

	// Timeout bounds connect and publish.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// SEOConfig configures the processing driver.
type SEOConfig struct {
	// MaxCategories is the category count each item is filled up to.
	// Default: 4
	MaxCategories *int `yaml:"max_categories"`

	// MaxTags is the tag count each item is filled up to.
	// Default: 5
	MaxTags *int `yaml:"max_tags"`

	// DefaultCategory is the slug removed from processed items.
	// Default: "uncategorized"
	DefaultCategory string `yaml:"default_category"`

	// Schedule is a cron expression for periodic processing in serve mode.
	// Empty disables scheduled runs.
	Schedule string `yaml:"schedule"`

	// BatchLimit caps the drafts processed per run. Zero means all.
	BatchLimit int `yaml:"batch_limit"`
}

// ServerConfig contains configuration for the administrative HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8089"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AdminToken, when set, is required as a bearer token on /api routes.
	AdminToken string `yaml:"admin_token"`
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded and served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path serving metrics.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "autoseo"
	Namespace string `yaml:"namespace"`

	// Subsystem is the second metric name component.
	Subsystem string `yaml:"subsystem"`

	// LatencyBuckets are the provider attempt latency histogram buckets.
	// Default: 0.25s to 60s
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// IsEnabled reports whether metrics are enabled.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}
