package config

import (
	"fmt"
	"time"
)

// Known provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderCohere    = "cohere"
)

// KnownProviders lists the provider identifiers in display order.
var KnownProviders = []string{ProviderOpenAI, ProviderAnthropic, ProviderCohere}

// Default values for configuration fields.
const (
	// Provider defaults
	DefaultProvider            = ProviderOpenAI
	DefaultProviderMaxTokens   = 150
	DefaultProviderTemperature = 0.7
	DefaultProviderMaxRetries  = 3
	DefaultProviderTimeout     = 60 * time.Second
	DefaultBackoffBase         = 4 * time.Second
	DefaultBackoffMultiplier   = 4.0
	DefaultBackoffMax          = 5 * time.Minute

	// Rate limit store defaults
	DefaultRateLimitBackend    = "memory"
	DefaultRateLimitSQLitePath = "data/ratelimits.db"

	// Logging defaults
	DefaultLogFile           = "logs/autoseo.log"
	DefaultLogMaxSize        = int64(5 * 1024 * 1024)
	DefaultLogMaxBackups     = 5
	DefaultLogRotateSchedule = "@hourly"
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "text"

	// Alert defaults
	DefaultSiteName       = "autoseo"
	DefaultMailPort       = 587
	DefaultMailTLS        = "opportunistic"
	DefaultMailTimeout    = 15 * time.Second
	DefaultWebhookTimeout = 10 * time.Second
	DefaultMQTTPort       = 1883
	DefaultMQTTTopic      = "autoseo/alerts"
	DefaultMQTTQoS        = 1
	DefaultMQTTTimeout    = 10 * time.Second

	// Content defaults
	DefaultContentBackend    = "sqlite"
	DefaultContentSQLitePath = "data/content.db"

	// SEO defaults
	DefaultMaxCategories   = 4
	DefaultMaxTags         = 5
	DefaultDefaultCategory = "uncategorized"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8089"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Metrics defaults
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "autoseo"

	// Secrets defaults
	DefaultSecretsEnvPrefix = "AUTOSEO_SECRET_"
)

// DefaultRateLimits are the per-minute ceilings used when neither the
// store nor the configuration sets one.
var DefaultRateLimits = map[string]int{
	ProviderOpenAI:    60,
	ProviderAnthropic: 45,
	ProviderCohere:    30,
}

// DefaultLatencyBuckets are the provider attempt latency histogram buckets.
var DefaultLatencyBuckets = []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60}

// defaultModels maps provider identifiers to their default model.
var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderAnthropic: "claude-2.1",
	ProviderCohere:    "command",
}

// defaultBaseURLs maps provider identifiers to their public API root.
var defaultBaseURLs = map[string]string{
	ProviderOpenAI:    "https://api.openai.com/v1",
	ProviderAnthropic: "https://api.anthropic.com",
	ProviderCohere:    "https://api.cohere.ai/v1",
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values, and adds an entry
// for every known provider so API keys may come from the environment alone.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for _, name := range KnownProviders {
		if _, ok := cfg.Providers[name]; !ok {
			cfg.Providers[name] = ProviderConfig{}
		}
	}
	for name, provider := range cfg.Providers {
		applyProviderDefaults(name, &provider)
		cfg.Providers[name] = provider
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = DefaultProvider
	}

	// Rate limit store defaults
	if cfg.RateLimitStore.Backend == "" {
		cfg.RateLimitStore.Backend = DefaultRateLimitBackend
	}
	if cfg.RateLimitStore.SQLitePath == "" {
		cfg.RateLimitStore.SQLitePath = DefaultRateLimitSQLitePath
	}

	applyLoggingDefaults(&cfg.Logging)
	applyAlertDefaults(&cfg.Alerts)

	// Content defaults
	if cfg.Content.Backend == "" {
		cfg.Content.Backend = DefaultContentBackend
	}
	if cfg.Content.SQLitePath == "" {
		cfg.Content.SQLitePath = DefaultContentSQLitePath
	}

	// SEO defaults
	if cfg.SEO.MaxCategories == nil {
		cfg.SEO.MaxCategories = intPtr(DefaultMaxCategories)
	}
	if cfg.SEO.MaxTags == nil {
		cfg.SEO.MaxTags = intPtr(DefaultMaxTags)
	}
	if cfg.SEO.DefaultCategory == "" {
		cfg.SEO.DefaultCategory = DefaultDefaultCategory
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Metrics defaults
	if cfg.Metrics.Enabled == nil {
		cfg.Metrics.Enabled = boolPtr(true)
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.LatencyBuckets) == 0 {
		cfg.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
}

func applyProviderDefaults(name string, p *ProviderConfig) {
	if p.BaseURL == "" {
		p.BaseURL = defaultBaseURLs[name]
	}
	if p.Model == "" {
		p.Model = defaultModels[name]
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = DefaultProviderMaxTokens
	}
	if p.Temperature == nil {
		p.Temperature = floatPtr(DefaultProviderTemperature)
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = DefaultProviderMaxRetries
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultProviderTimeout
	}
	if p.Backoff.Base == 0 {
		p.Backoff.Base = DefaultBackoffBase
	}
	if p.Backoff.Multiplier == 0 {
		p.Backoff.Multiplier = DefaultBackoffMultiplier
	}
	if p.Backoff.Max == 0 {
		p.Backoff.Max = DefaultBackoffMax
	}
	if p.StopSequences == nil && name == ProviderAnthropic {
		p.StopSequences = []string{"\n"}
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.File == "" {
		l.File = DefaultLogFile
	}
	if l.MaxSize == 0 {
		l.MaxSize = DefaultLogMaxSize
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = DefaultLogMaxBackups
	}
	if l.RotateSchedule == "" {
		l.RotateSchedule = DefaultLogRotateSchedule
	}
	if l.RotateOnWrite == nil {
		l.RotateOnWrite = boolPtr(true)
	}
	if l.Redact == nil {
		l.Redact = boolPtr(true)
	}
	if l.Console == nil {
		l.Console = boolPtr(true)
	}
	if l.Level == "" {
		l.Level = DefaultLoggingLevel
	}
	if l.Format == "" {
		l.Format = DefaultLoggingFormat
	}
}

func applyAlertDefaults(a *AlertsConfig) {
	if a.SiteName == "" {
		a.SiteName = DefaultSiteName
	}
	if a.Mail.Port == 0 {
		a.Mail.Port = DefaultMailPort
	}
	if a.Mail.TLS == "" {
		a.Mail.TLS = DefaultMailTLS
	}
	if a.Mail.Timeout == 0 {
		a.Mail.Timeout = DefaultMailTimeout
	}
	if a.Webhook.Timeout == 0 {
		a.Webhook.Timeout = DefaultWebhookTimeout
	}
	if a.MQTT.Port == 0 {
		a.MQTT.Port = DefaultMQTTPort
	}
	if a.MQTT.Topic == "" {
		a.MQTT.Topic = DefaultMQTTTopic
	}
	if a.MQTT.QoS == nil {
		a.MQTT.QoS = intPtr(DefaultMQTTQoS)
	}
	if a.MQTT.Timeout == 0 {
		a.MQTT.Timeout = DefaultMQTTTimeout
	}
	if a.MQTT.ClientID == "" {
		a.MQTT.ClientID = fmt.Sprintf("autoseo-%d", time.Now().Unix())
	}
}

// RateLimitFor returns the configured ceiling for provider, falling back to
// the built-in default and then to 30.
func (c *Config) RateLimitFor(provider string) int {
	if n, ok := c.RateLimits[provider]; ok && n > 0 {
		return n
	}
	if n, ok := DefaultRateLimits[provider]; ok {
		return n
	}
	return 30
}

// BoolValue dereferences b, returning def when b is nil.
func BoolValue(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// IntValue dereferences i, returning def when i is nil.
func IntValue(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}

func boolPtr(b bool) *bool        { return &b }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }
