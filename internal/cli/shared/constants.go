// Package shared provides constants and helpers used across CLI subpackages.
// This package has no dependencies on other CLI packages to avoid circular imports.
package shared

import (
	stderrors "errors"
	"fmt"

	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
)

// Command group IDs for organizing help output
const (
	GroupGettingStarted = "getting-started"
	GroupOperations     = "operations"
	GroupServer         = "server"
	GroupConfiguration  = "configuration"
)

// Exit codes for CLI commands
const (
	ExitSuccess           = 0
	ExitOperationFailed   = 1
	ExitInvalidArguments  = 3
	ExitMissingDependency = 4
	ExitTimeout           = 5
)

// exitError is a custom error type that carries an exit code.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates a new exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// ExitCode returns the exit code from an error. Classified errors map by
// kind; anything else is an operation failure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if stderrors.As(err, &e) {
		return e.code
	}
	return ExitCodeForKind(apperrors.KindOf(err))
}

// ExitCodeForKind maps the kind of an error raised outside an operation
// (configuration, flags, the version probe) to the process exit code.
// Operation results never use it: an unsuccessful operation exits with
// ExitOperationFailed.
func ExitCodeForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.None:
		return ExitSuccess
	case apperrors.InvalidOptions, apperrors.Configuration:
		return ExitInvalidArguments
	case apperrors.LaunchFailure:
		return ExitMissingDependency
	case apperrors.Timeout:
		return ExitTimeout
	default:
		return ExitOperationFailed
	}
}

// IsExitError reports whether err only carries an exit code, meaning the
// command already printed its own output.
func IsExitError(err error) bool {
	var e *exitError
	return stderrors.As(err, &e)
}
