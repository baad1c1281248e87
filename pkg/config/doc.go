// Package config provides configuration management for autoseo.
//
// This package handles loading, validating, and reloading configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("autoseo.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("autoseo.yaml")
//
// ${VAR} references inside the file are expanded before parsing, so secrets
// can stay out of the file:
//
//	alerts:
//	  mail:
//	    password: ${SMTP_PASSWORD}
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention AUTOSEO_SECTION_FIELD.
// For example:
//
//   - AUTOSEO_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - AUTOSEO_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//   - AUTOSEO_RATE_LIMITS_COHERE overrides rate_limits.cohere
//
// OPENAI_API_KEY, ANTHROPIC_API_KEY, and COHERE_API_KEY are also honoured,
// below their AUTOSEO_ counterparts.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Reloading
//
// Watcher observes the file and hands each valid reloaded Config to a
// callback; the serve command uses it to apply new rate limit overrides.
package config
