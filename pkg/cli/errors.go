package cli

import (
	"errors"
	"fmt"

	"datolab/autoseo/pkg/config"
)

// Exit codes returned by the autoseo command.
const (
	ExitOK = 0

	// ExitFailure is any unclassified error.
	ExitFailure = 1

	// ExitConfig is an invalid or unreadable configuration.
	ExitConfig = 2

	// ExitPartial is a processing run in which some items failed.
	ExitPartial = 3
)

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitError carries an explicit exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError wraps err with an exit code.
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var validationErr config.ValidationError
	if errors.As(err, &validationErr) || config.IsNotExist(err) {
		return ExitConfig
	}

	return ExitFailure
}
