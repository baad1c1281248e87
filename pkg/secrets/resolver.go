package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
)

var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Resolver looks secrets up across providers in priority order.
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver trying providers in the order given.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// GetSecret returns the value from the first provider holding name. A
// provider failing for any reason other than ErrNotFound stops the lookup.
func (r *Resolver) GetSecret(ctx context.Context, name string) (string, error) {
	for _, provider := range r.providers {
		value, err := provider.GetSecret(ctx, name)
		if err == nil {
			slog.Debug("secret resolved",
				"provider", provider.Provider(),
				"name", redactSecretName(name),
			)
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%s provider: %w", provider.Provider(), err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Expand replaces every ${secret:name} reference in value. Values without a
// reference are returned unchanged. On error the input is returned as is.
func (r *Resolver) Expand(ctx context.Context, value string) (string, error) {
	var errs []error
	out := secretRefRegex.ReplaceAllStringFunc(value, func(match string) string {
		name := secretRefRegex.FindStringSubmatch(match)[1]
		secret, err := r.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return match
		}
		return secret
	})
	if len(errs) > 0 {
		return value, errors.Join(errs...)
	}
	return out, nil
}

// IsReference reports whether value contains a ${secret:name} reference.
func IsReference(value string) bool {
	return secretRefRegex.MatchString(value)
}

// redactSecretName shortens a secret name for debug logs.
func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
