package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no provider holds the secret.
var ErrNotFound = errors.New("secret not found")

// Provider retrieves secrets from one backend.
type Provider interface {
	// GetSecret returns the secret value. A missing secret is reported as
	// an error wrapping ErrNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// Provider returns the backend name ("env", "file").
	Provider() string
}
