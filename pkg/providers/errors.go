package providers

import (
	"errors"
	"fmt"
)

// Kind classifies a failed provider call.
type Kind string

const (
	// KindTransport is a network failure before a response was read.
	KindTransport Kind = "transport_error"

	// KindRateLimited means the local rate limiter denied the call.
	// No request was sent.
	KindRateLimited Kind = "rate_limited"

	// KindHTTP is a response with a status other than 200.
	KindHTTP Kind = "http_error"

	// KindMalformedResponse is a 200 response that is not JSON or lacks the
	// expected text field.
	KindMalformedResponse Kind = "malformed_response"

	// KindExhaustedRetries means every attempt failed. Cause holds the last
	// attempt's error.
	KindExhaustedRetries Kind = "exhausted_retries"
)

// MaxBodyExcerpt is the most response body bytes kept on an http_error.
const MaxBodyExcerpt = 512

// CallError is the error returned by Provider.Call.
type CallError struct {
	// Kind classifies the failure
	Kind Kind

	// Provider is the display name of the provider ("OpenAI")
	Provider string

	// Attempts is the number of attempts made (the failing attempt for a
	// single-attempt error)
	Attempts int

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Body is an excerpt of the response body, at most MaxBodyExcerpt bytes
	Body string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *CallError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether the outermost CallError in err's chain has kind.
func IsKind(err error, kind Kind) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// ConfigError represents a provider configuration error.
// This occurs when the provider configuration is invalid.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// excerpt truncates a response body to MaxBodyExcerpt bytes.
func excerpt(body []byte) string {
	if len(body) > MaxBodyExcerpt {
		body = body[:MaxBodyExcerpt]
	}
	return string(body)
}
