package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Minimum backoff parameters for provider retries.
const (
	MinBackoffBase       = time.Second
	MinBackoffMultiplier = 4.0
)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProviders(cfg)...)
	errs = append(errs, validateRateLimits(cfg)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateAlerts(&cfg.Alerts)...)
	errs = append(errs, validateStore("content", &cfg.Content)...)
	errs = append(errs, validateSEO(&cfg.SEO)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProviders validates provider configurations.
func validateProviders(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.DefaultProvider != "" && !slices.Contains(KnownProviders, cfg.DefaultProvider) {
		errs = append(errs, FieldError{
			Field:   "default_provider",
			Message: fmt.Sprintf("unknown provider %q (must be one of %s)", cfg.DefaultProvider, strings.Join(KnownProviders, ", ")),
		})
	}

	// Sorted for stable error order.
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		provider := cfg.Providers[name]
		prefix := fmt.Sprintf("providers.%s", name)

		if !slices.Contains(KnownProviders, name) {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: fmt.Sprintf("unknown provider (must be one of %s)", strings.Join(KnownProviders, ", ")),
			})
			continue
		}

		// API keys may be empty; a call without one fails at runtime.

		if provider.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required",
			})
		} else if u, err := url.Parse(provider.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "invalid URL format",
			})
		}

		if provider.MaxTokens <= 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_tokens",
				Message: "max tokens must be positive",
			})
		}
		if provider.Temperature != nil && (*provider.Temperature < 0 || *provider.Temperature > 2) {
			errs = append(errs, FieldError{
				Field:   prefix + ".temperature",
				Message: "temperature must be between 0 and 2",
			})
		}
		if provider.Timeout <= 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
		if provider.MaxRetries < 1 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max retries must be at least 1",
			})
		}
		if provider.MaxRetries > 10 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max retries exceeds reasonable limit (10)",
			})
		}
		if provider.Backoff.Base <= MinBackoffBase {
			errs = append(errs, FieldError{
				Field:   prefix + ".backoff.base",
				Message: fmt.Sprintf("backoff base must exceed %s", MinBackoffBase),
			})
		}
		if provider.Backoff.Multiplier < MinBackoffMultiplier {
			errs = append(errs, FieldError{
				Field:   prefix + ".backoff.multiplier",
				Message: fmt.Sprintf("backoff multiplier must be at least %g", MinBackoffMultiplier),
			})
		}
		if provider.Backoff.Max < provider.Backoff.Base {
			errs = append(errs, FieldError{
				Field:   prefix + ".backoff.max",
				Message: "backoff max must not be less than base",
			})
		}
	}

	return errs
}

// validateRateLimits validates rate limit overrides and their store.
func validateRateLimits(cfg *Config) []FieldError {
	var errs []FieldError

	names := make([]string, 0, len(cfg.RateLimits))
	for name := range cfg.RateLimits {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if cfg.RateLimits[name] < 1 {
			errs = append(errs, FieldError{
				Field:   "rate_limits." + name,
				Message: "rate limit must be at least 1",
			})
		}
	}

	errs = append(errs, validateStore("rate_limit_store", &cfg.RateLimitStore)...)
	return errs
}

// validateStore validates a memory/sqlite backend selection.
func validateStore(prefix string, cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".sqlite_path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   prefix + ".backend",
			Message: fmt.Sprintf("invalid backend %q (must be 'memory' or 'sqlite')", cfg.Backend),
		})
	}

	return errs
}

// validateLogging validates activity log configuration.
func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	if cfg.File == "" {
		errs = append(errs, FieldError{
			Field:   "logging.file",
			Message: "log file path is required",
		})
	}
	if cfg.MaxSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "logging.max_size",
			Message: "max size must be positive",
		})
	}
	// Zero is filled with the default before validation, so only an
	// override can leave it here.
	if cfg.MaxBackups < 1 {
		errs = append(errs, FieldError{
			Field:   "logging.max_backups",
			Message: "max backups must be at least 1",
		})
	}
	if err := validateSchedule(cfg.RotateSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "logging.rotate_schedule",
			Message: err.Error(),
		})
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Level)) {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be one of: %s)", cfg.Level, strings.Join(validLevels, ", ")),
		})
	}

	validFormats := []string{"json", "text"}
	if !slices.Contains(validFormats, cfg.Format) {
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be one of: %s)", cfg.Format, strings.Join(validFormats, ", ")),
		})
	}

	return errs
}

// validateAlerts validates the enabled alert sinks.
func validateAlerts(cfg *AlertsConfig) []FieldError {
	var errs []FieldError

	if cfg.Mail.Enabled {
		if cfg.Mail.Host == "" {
			errs = append(errs, FieldError{Field: "alerts.mail.host", Message: "SMTP host is required when mail alerts are enabled"})
		}
		if cfg.Mail.Port < 1 || cfg.Mail.Port > 65535 {
			errs = append(errs, FieldError{Field: "alerts.mail.port", Message: "port must be between 1 and 65535"})
		}
		if cfg.Mail.From == "" {
			errs = append(errs, FieldError{Field: "alerts.mail.from", Message: "sender address is required when mail alerts are enabled"})
		}
		if len(cfg.Mail.To) == 0 {
			errs = append(errs, FieldError{Field: "alerts.mail.to", Message: "at least one recipient is required when mail alerts are enabled"})
		}
		validTLS := []string{"mandatory", "opportunistic", "none"}
		if !slices.Contains(validTLS, cfg.Mail.TLS) {
			errs = append(errs, FieldError{
				Field:   "alerts.mail.tls",
				Message: fmt.Sprintf("invalid TLS policy %q (must be one of: %s)", cfg.Mail.TLS, strings.Join(validTLS, ", ")),
			})
		}
	}

	if cfg.Webhook.Enabled {
		if cfg.Webhook.URL == "" {
			errs = append(errs, FieldError{Field: "alerts.webhook.url", Message: "URL is required when webhook alerts are enabled"})
		} else if u, err := url.Parse(cfg.Webhook.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, FieldError{Field: "alerts.webhook.url", Message: "URL must be an http or https URL"})
		}
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			errs = append(errs, FieldError{Field: "alerts.mqtt.broker", Message: "broker is required when MQTT alerts are enabled"})
		}
		if cfg.MQTT.Port < 1 || cfg.MQTT.Port > 65535 {
			errs = append(errs, FieldError{Field: "alerts.mqtt.port", Message: "port must be between 1 and 65535"})
		}
		if cfg.MQTT.Topic == "" {
			errs = append(errs, FieldError{Field: "alerts.mqtt.topic", Message: "topic is required when MQTT alerts are enabled"})
		}
		if qos := IntValue(cfg.MQTT.QoS, DefaultMQTTQoS); qos < 0 || qos > 2 {
			errs = append(errs, FieldError{Field: "alerts.mqtt.qos", Message: "QoS must be 0, 1, or 2"})
		}
	}

	return errs
}

// validateSEO validates the processing driver configuration.
func validateSEO(cfg *SEOConfig) []FieldError {
	var errs []FieldError

	if IntValue(cfg.MaxCategories, DefaultMaxCategories) < 0 {
		errs = append(errs, FieldError{Field: "seo.max_categories", Message: "max categories must be non-negative"})
	}
	if IntValue(cfg.MaxTags, DefaultMaxTags) < 0 {
		errs = append(errs, FieldError{Field: "seo.max_tags", Message: "max tags must be non-negative"})
	}
	if cfg.BatchLimit < 0 {
		errs = append(errs, FieldError{Field: "seo.batch_limit", Message: "batch limit must be non-negative"})
	}
	if err := validateSchedule(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{Field: "seo.schedule", Message: err.Error()})
	}

	return errs
}

// validateServer validates the admin server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be non-negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be non-negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be non-negative"})
	}

	return errs
}

// validateSchedule parses a cron expression. Empty schedules are valid.
func validateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %v", schedule, err)
	}
	return nil
}
