package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autoseo.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
providers:
  openai:
    api_key: "sk-test-123"
    max_retries: 5
    timeout: "30s"
  cohere:
    model: "command-light"
    backoff:
      base: "5s"
      multiplier: 5

rate_limits:
  openai: 90

logging:
  file: "/tmp/autoseo-test.log"
  max_backups: 3

seo:
  max_tags: 3
  schedule: "*/15 * * * *"

server:
  listen_address: "0.0.0.0:9000"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	openai := cfg.Providers["openai"]
	if openai.APIKey != "sk-test-123" {
		t.Errorf("expected API key %q, got %q", "sk-test-123", openai.APIKey)
	}
	if openai.MaxRetries != 5 {
		t.Errorf("expected max retries %d, got %d", 5, openai.MaxRetries)
	}
	if openai.Timeout != 30*time.Second {
		t.Errorf("expected timeout %v, got %v", 30*time.Second, openai.Timeout)
	}

	cohere := cfg.Providers["cohere"]
	if cohere.Model != "command-light" {
		t.Errorf("expected model %q, got %q", "command-light", cohere.Model)
	}
	if cohere.Backoff.Base != 5*time.Second {
		t.Errorf("expected backoff base %v, got %v", 5*time.Second, cohere.Backoff.Base)
	}

	if _, ok := cfg.Providers["anthropic"]; !ok {
		t.Error("expected anthropic provider to be defaulted")
	}
	if cfg.RateLimits["openai"] != 90 {
		t.Errorf("expected rate limit %d, got %d", 90, cfg.RateLimits["openai"])
	}
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("expected max backups %d, got %d", 3, cfg.Logging.MaxBackups)
	}
	if IntValue(cfg.SEO.MaxTags, 0) != 3 {
		t.Errorf("expected max tags %d, got %d", 3, IntValue(cfg.SEO.MaxTags, 0))
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9000", cfg.Server.ListenAddress)
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/autoseo.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "providers:\n  openai: [unclosed\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
providers:
  openai:
    backoff:
      base: "500ms"
      multiplier: 2
rate_limits:
  cohere: 0
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	fields := make(map[string]bool)
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{
		"providers.openai.backoff.base",
		"providers.openai.backoff.multiplier",
		"rate_limits.cohere",
	} {
		if !fields[want] {
			t.Errorf("expected error for field %q, got %v", want, verr.Errors)
		}
	}
}

func TestLoadConfig_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("AUTOSEO_TEST_SMTP_PASSWORD", "hunter2")

	path := writeConfig(t, `
alerts:
  mail:
    password: "${AUTOSEO_TEST_SMTP_PASSWORD}"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Alerts.Mail.Password != "hunter2" {
		t.Errorf("expected expanded password, got %q", cfg.Alerts.Mail.Password)
	}
}

func TestLoadConfig_KeepsSecretReferences(t *testing.T) {
	t.Setenv("AUTOSEO_TEST_SECRETS_DIR", "/run/secrets")

	path := writeConfig(t, `
providers:
  openai:
    api_key: "${secret:openai-api-key}"
secrets:
  dir: "${AUTOSEO_TEST_SECRETS_DIR}"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if got := cfg.Providers["openai"].APIKey; got != "${secret:openai-api-key}" {
		t.Errorf("expected the secret reference kept, got %q", got)
	}
	if cfg.Secrets.Dir != "/run/secrets" {
		t.Errorf("expected expanded secrets dir, got %q", cfg.Secrets.Dir)
	}
	if cfg.Secrets.EnvPrefix != DefaultSecretsEnvPrefix {
		t.Errorf("expected env prefix %q, got %q", DefaultSecretsEnvPrefix, cfg.Secrets.EnvPrefix)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8089"
logging:
  level: "info"
`)

	t.Setenv("AUTOSEO_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")
	t.Setenv("AUTOSEO_LOGGING_LEVEL", "debug")
	t.Setenv("AUTOSEO_RATE_LIMITS_ANTHROPIC", "10")
	t.Setenv("AUTOSEO_SEO_MAX_CATEGORIES", "2")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9999", cfg.Server.ListenAddress)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Logging.Level)
	}
	if cfg.RateLimits["anthropic"] != 10 {
		t.Errorf("expected anthropic limit %d, got %d", 10, cfg.RateLimits["anthropic"])
	}
	if IntValue(cfg.SEO.MaxCategories, 0) != 2 {
		t.Errorf("expected max categories %d, got %d", 2, IntValue(cfg.SEO.MaxCategories, 0))
	}
}

func TestLoadConfigWithEnvOverrides_ProviderKeys(t *testing.T) {
	path := writeConfig(t, `
providers:
  openai:
    api_key: "from-file"
  anthropic:
    api_key: "from-file"
`)

	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("AUTOSEO_PROVIDERS_ANTHROPIC_API_KEY", "from-prefixed-env")
	t.Setenv("COHERE_API_KEY", "cohere-env")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "from-env"},
		{"anthropic", "from-prefixed-env"},
		{"cohere", "cohere-env"},
	}
	for _, tt := range tests {
		if got := cfg.Providers[tt.provider].APIKey; got != tt.want {
			t.Errorf("%s: expected API key %q, got %q", tt.provider, tt.want, got)
		}
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	path := writeConfig(t, "")

	// Unparseable values are ignored.
	t.Setenv("AUTOSEO_SERVER_READ_TIMEOUT", "soon")
	t.Setenv("AUTOSEO_PROVIDERS_OPENAI_MAX_RETRIES", "many")
	t.Setenv("AUTOSEO_LOGGING_REDACT", "maybe")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Providers["openai"].MaxRetries != DefaultProviderMaxRetries {
		t.Errorf("expected max retries %d, got %d", DefaultProviderMaxRetries, cfg.Providers["openai"].MaxRetries)
	}
	if !BoolValue(cfg.Logging.Redact, false) {
		t.Error("expected redaction to stay enabled")
	}
}

func TestLoadConfigWithEnvOverrides_RevalidatesOverrides(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("AUTOSEO_DEFAULT_PROVIDER", "mistral")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("expected validation error for unknown default provider")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("expected override validation error, got: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides_RejectsZeroMaxBackups(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("AUTOSEO_LOGGING_MAX_BACKUPS", "0")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("expected validation error for zero max backups")
	}
	if !strings.Contains(err.Error(), "logging.max_backups") {
		t.Errorf("expected logging.max_backups error, got: %v", err)
	}
}
