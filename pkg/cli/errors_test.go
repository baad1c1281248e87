package cli

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"datolab/autoseo/pkg/config"
)

func TestCommandError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewCommandError("process", underlying)

	if got, want := err.Error(), "command process failed: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() = false, want the wrapped error")
	}
}

func TestExitCode(t *testing.T) {
	validation := config.ValidationError{Errors: []config.FieldError{{Field: "seo.max_tags", Message: "must be non-negative"}}}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"explicit code", NewExitError(ExitPartial, errors.New("2 items failed")), ExitPartial},
		{"wrapped explicit code", fmt.Errorf("run: %w", NewExitError(7, nil)), 7},
		{"validation", fmt.Errorf("configuration validation failed: %w", validation), ExitConfig},
		{"missing config file", fmt.Errorf("failed to read: %w", os.ErrNotExist), ExitConfig},
		{"command wrapping validation", NewCommandError("serve", validation), ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitError_Message(t *testing.T) {
	if got := NewExitError(3, nil).Error(); got != "exit status 3" {
		t.Errorf("Error() = %q, want %q", got, "exit status 3")
	}
	if got := NewExitError(3, errors.New("2 items failed")).Error(); got != "2 items failed" {
		t.Errorf("Error() = %q, want the wrapped message", got)
	}
}
