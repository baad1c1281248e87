package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := MinimalConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	// Nothing defaulted: logging, store backends and server are all empty.
	cfg := &Config{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Providers(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:      "unknown provider",
			modify:    func(c *Config) { c.Providers["mistral"] = c.Providers["openai"] },
			wantField: "providers.mistral",
		},
		{
			name:      "unknown default provider",
			modify:    func(c *Config) { c.DefaultProvider = "mistral" },
			wantField: "default_provider",
		},
		{
			name: "invalid base URL",
			modify: func(c *Config) {
				p := c.Providers["openai"]
				p.BaseURL = "not a url"
				c.Providers["openai"] = p
			},
			wantField: "providers.openai.base_url",
		},
		{
			name: "zero retries",
			modify: func(c *Config) {
				p := c.Providers["cohere"]
				p.MaxRetries = -1
				c.Providers["cohere"] = p
			},
			wantField: "providers.cohere.max_retries",
		},
		{
			name: "non-positive timeout",
			modify: func(c *Config) {
				p := c.Providers["anthropic"]
				p.Timeout = -time.Second
				c.Providers["anthropic"] = p
			},
			wantField: "providers.anthropic.timeout",
		},
		{
			name: "temperature out of range",
			modify: func(c *Config) {
				p := c.Providers["openai"]
				p.Temperature = floatPtr(2.5)
				c.Providers["openai"] = p
			},
			wantField: "providers.openai.temperature",
		},
		{
			name: "backoff base of exactly one second",
			modify: func(c *Config) {
				p := c.Providers["openai"]
				p.Backoff.Base = time.Second
				c.Providers["openai"] = p
			},
			wantField: "providers.openai.backoff.base",
		},
		{
			name: "backoff multiplier below four",
			modify: func(c *Config) {
				p := c.Providers["openai"]
				p.Backoff.Multiplier = 3.5
				c.Providers["openai"] = p
			},
			wantField: "providers.openai.backoff.multiplier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.modify(cfg)
			assertFieldError(t, Validate(cfg), tt.wantField)
		})
	}
}

func TestValidate_Sections(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:      "rate limit below one",
			modify:    func(c *Config) { c.RateLimits = map[string]int{"openai": 0} },
			wantField: "rate_limits.openai",
		},
		{
			name:      "unknown rate limit backend",
			modify:    func(c *Config) { c.RateLimitStore.Backend = "redis" },
			wantField: "rate_limit_store.backend",
		},
		{
			name: "sqlite content without path",
			modify: func(c *Config) {
				c.Content.Backend = "sqlite"
				c.Content.SQLitePath = ""
			},
			wantField: "content.sqlite_path",
		},
		{
			name:      "invalid rotate schedule",
			modify:    func(c *Config) { c.Logging.RotateSchedule = "every hour" },
			wantField: "logging.rotate_schedule",
		},
		{
			name:      "invalid log format",
			modify:    func(c *Config) { c.Logging.Format = "xml" },
			wantField: "logging.format",
		},
		{
			name:      "zero max backups",
			modify:    func(c *Config) { c.Logging.MaxBackups = 0 },
			wantField: "logging.max_backups",
		},
		{
			name:      "negative max backups",
			modify:    func(c *Config) { c.Logging.MaxBackups = -1 },
			wantField: "logging.max_backups",
		},
		{
			name:      "invalid processing schedule",
			modify:    func(c *Config) { c.SEO.Schedule = "* * *" },
			wantField: "seo.schedule",
		},
		{
			name:      "negative max tags",
			modify:    func(c *Config) { c.SEO.MaxTags = intPtr(-1) },
			wantField: "seo.max_tags",
		},
		{
			name:      "listen address without port",
			modify:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name: "mail without recipients",
			modify: func(c *Config) {
				c.Alerts.Mail.Enabled = true
				c.Alerts.Mail.Host = "smtp.example.com"
				c.Alerts.Mail.From = "seo@example.com"
			},
			wantField: "alerts.mail.to",
		},
		{
			name: "webhook with non-http URL",
			modify: func(c *Config) {
				c.Alerts.Webhook.Enabled = true
				c.Alerts.Webhook.URL = "ftp://example.com/hook"
			},
			wantField: "alerts.webhook.url",
		},
		{
			name: "mqtt QoS out of range",
			modify: func(c *Config) {
				c.Alerts.MQTT.Enabled = true
				c.Alerts.MQTT.Broker = "localhost"
				c.Alerts.MQTT.QoS = intPtr(3)
			},
			wantField: "alerts.mqtt.qos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.modify(cfg)
			assertFieldError(t, Validate(cfg), tt.wantField)
		})
	}
}

func TestValidate_DisabledSinksAreNotChecked(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Alerts.Mail.Host = ""
	cfg.Alerts.Webhook.URL = "ftp://ignored"

	if err := Validate(cfg); err != nil {
		t.Errorf("expected disabled sinks to be skipped, got: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		contains string
	}{
		{
			name:     "empty errors",
			err:      ValidationError{Errors: []FieldError{}},
			contains: "configuration validation failed",
		},
		{
			name: "single error",
			err: ValidationError{
				Errors: []FieldError{
					{Field: "server.listen_address", Message: "required"},
				},
			},
			contains: "server.listen_address",
		},
		{
			name: "multiple errors",
			err: ValidationError{
				Errors: []FieldError{
					{Field: "server.listen_address", Message: "required"},
					{Field: "rate_limits.openai", Message: "must be at least 1"},
				},
			},
			contains: "2 errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errMsg := tt.err.Error()
			if !strings.Contains(errMsg, tt.contains) {
				t.Errorf("expected error message to contain %q, got: %s", tt.contains, errMsg)
			}
		})
	}
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected validation error for %q", field)
	}
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	for _, fe := range verr.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected error for field %q, got %v", field, verr.Errors)
}
