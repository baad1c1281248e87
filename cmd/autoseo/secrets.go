package main

import (
	"context"
	"fmt"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/secrets"
)

// resolveSecrets replaces ${secret:name} references in the credential
// fields of cfg. Unresolved references are reported as a
// config.ValidationError naming each field.
func resolveSecrets(ctx context.Context, cfg *config.Config) error {
	providers := []secrets.Provider{secrets.NewEnvProvider(cfg.Secrets.EnvPrefix)}
	if cfg.Secrets.Dir != "" {
		files, err := secrets.NewFileProvider(cfg.Secrets.Dir)
		if err != nil {
			return config.ValidationError{Errors: []config.FieldError{{
				Field:   "secrets.dir",
				Message: err.Error(),
			}}}
		}
		providers = append(providers, files)
	}
	resolver := secrets.NewResolver(providers...)

	var errs []config.FieldError
	expand := func(field string, value *string) {
		if !secrets.IsReference(*value) {
			return
		}
		resolved, err := resolver.Expand(ctx, *value)
		if err != nil {
			errs = append(errs, config.FieldError{Field: field, Message: err.Error()})
			return
		}
		*value = resolved
	}

	for _, name := range config.KnownProviders {
		provider, ok := cfg.Providers[name]
		if !ok {
			continue
		}
		expand(fmt.Sprintf("providers.%s.api_key", name), &provider.APIKey)
		cfg.Providers[name] = provider
	}
	expand("alerts.mail.password", &cfg.Alerts.Mail.Password)
	expand("alerts.mqtt.password", &cfg.Alerts.MQTT.Password)
	expand("server.admin_token", &cfg.Server.AdminToken)

	if len(errs) > 0 {
		return config.ValidationError{Errors: errs}
	}
	return nil
}
