package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "AUTOSEO_"

// providerKeyEnv maps provider identifiers to their conventional API key
// variables.
var providerKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderCohere:    "COHERE_API_KEY",
}

// LoadConfig loads configuration from a YAML file at the specified path.
// ${VAR} references in the file are expanded from the environment before
// parsing. It applies default values, validates the configuration, and
// returns any errors. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention AUTOSEO_SECTION_FIELD (e.g., AUTOSEO_SERVER_LISTEN_ADDRESS).
// The OPENAI_API_KEY, ANTHROPIC_API_KEY, and COHERE_API_KEY variables set
// provider keys; AUTOSEO_PROVIDERS_<NAME>_API_KEY wins over them.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// load reads and parses path and applies defaults without validating.
// A missing file at an empty path is not an error.
func load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		expanded := os.Expand(string(data), expandEnv)
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// expandEnv resolves ${VAR} from the environment and leaves ${secret:name}
// references for the secrets resolver.
func expandEnv(name string) string {
	if strings.HasPrefix(name, secretRefPrefix) {
		return "${" + name + "}"
	}
	return os.Getenv(name)
}

const secretRefPrefix = "secret:"

// IsNotExist reports whether err came from a missing configuration file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	for _, name := range KnownProviders {
		applyProviderEnvOverrides(cfg, name)
	}
	if val := os.Getenv(EnvPrefix + "DEFAULT_PROVIDER"); val != "" {
		cfg.DefaultProvider = strings.ToLower(val)
	}

	// Rate limit overrides
	for _, name := range KnownProviders {
		if val := os.Getenv(EnvPrefix + "RATE_LIMITS_" + strings.ToUpper(name)); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				if cfg.RateLimits == nil {
					cfg.RateLimits = make(map[string]int)
				}
				cfg.RateLimits[name] = i
			}
		}
	}
	if val := os.Getenv(EnvPrefix + "RATE_LIMIT_STORE_BACKEND"); val != "" {
		cfg.RateLimitStore.Backend = val
	}
	if val := os.Getenv(EnvPrefix + "RATE_LIMIT_STORE_SQLITE_PATH"); val != "" {
		cfg.RateLimitStore.SQLitePath = val
	}

	// Logging overrides
	if val := os.Getenv(EnvPrefix + "LOGGING_FILE"); val != "" {
		cfg.Logging.File = val
	}
	if val := os.Getenv(EnvPrefix + "LOGGING_MAX_SIZE"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Logging.MaxSize = i
		}
	}
	if val := os.Getenv(EnvPrefix + "LOGGING_MAX_BACKUPS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Logging.MaxBackups = i
		}
	}
	if val := os.Getenv(EnvPrefix + "LOGGING_ROTATE_SCHEDULE"); val != "" {
		cfg.Logging.RotateSchedule = val
	}
	if val := os.Getenv(EnvPrefix + "LOGGING_REDACT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Logging.Redact = &b
		}
	}
	if val := os.Getenv(EnvPrefix + "LOGGING_CONSOLE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Logging.Console = &b
		}
	}
	if val := os.Getenv(EnvPrefix + "LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv(EnvPrefix + "LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Alert overrides
	if val := os.Getenv(EnvPrefix + "ALERTS_SITE_NAME"); val != "" {
		cfg.Alerts.SiteName = val
	}
	if val := os.Getenv(EnvPrefix + "ALERTS_MAIL_PASSWORD"); val != "" {
		cfg.Alerts.Mail.Password = val
	}
	if val := os.Getenv(EnvPrefix + "ALERTS_WEBHOOK_URL"); val != "" {
		cfg.Alerts.Webhook.URL = val
	}
	if val := os.Getenv(EnvPrefix + "ALERTS_MQTT_PASSWORD"); val != "" {
		cfg.Alerts.MQTT.Password = val
	}

	// Content overrides
	if val := os.Getenv(EnvPrefix + "CONTENT_BACKEND"); val != "" {
		cfg.Content.Backend = val
	}
	if val := os.Getenv(EnvPrefix + "CONTENT_SQLITE_PATH"); val != "" {
		cfg.Content.SQLitePath = val
	}

	// SEO overrides
	if val := os.Getenv(EnvPrefix + "SEO_MAX_CATEGORIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.SEO.MaxCategories = &i
		}
	}
	if val := os.Getenv(EnvPrefix + "SEO_MAX_TAGS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.SEO.MaxTags = &i
		}
	}
	if val := os.Getenv(EnvPrefix + "SEO_SCHEDULE"); val != "" {
		cfg.SEO.Schedule = val
	}

	// Server overrides
	if val := os.Getenv(EnvPrefix + "SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv(EnvPrefix + "SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv(EnvPrefix + "SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv(EnvPrefix + "SERVER_ADMIN_TOKEN"); val != "" {
		cfg.Server.AdminToken = val
	}

	// Metrics overrides
	if val := os.Getenv(EnvPrefix + "METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = &b
		}
	}

	if val := os.Getenv(EnvPrefix + "SECRETS_DIR"); val != "" {
		cfg.Secrets.Dir = val
	}
}

// applyProviderEnvOverrides applies environment variable overrides for a specific provider.
// Provider environment variables follow the format AUTOSEO_PROVIDERS_<NAME>_<FIELD>
// where NAME is the uppercase provider name.
func applyProviderEnvOverrides(cfg *Config, providerName string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	provider := cfg.Providers[providerName]

	if val := os.Getenv(providerKeyEnv[providerName]); val != "" {
		provider.APIKey = val
	}

	prefix := fmt.Sprintf("%sPROVIDERS_%s_", EnvPrefix, strings.ToUpper(providerName))

	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
	}
	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
	}
	if val := os.Getenv(prefix + "MODEL"); val != "" {
		provider.Model = val
	}
	if val := os.Getenv(prefix + "MAX_TOKENS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.MaxTokens = i
		}
	}
	if val := os.Getenv(prefix + "TEMPERATURE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			provider.Temperature = &f
		}
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.Timeout = d
		}
	}
	if val := os.Getenv(prefix + "MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.MaxRetries = i
		}
	}

	cfg.Providers[providerName] = provider
}
