package cli

import (
	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
)

// Exit codes for the dbt-mcp CLI (re-exported from shared)
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = shared.ExitSuccess

	// ExitOperationFailed indicates a dbt operation did not succeed, whatever the failure kind
	ExitOperationFailed = shared.ExitOperationFailed

	// ExitInvalidArguments indicates invalid flags or configuration found before any operation ran
	ExitInvalidArguments = shared.ExitInvalidArguments

	// ExitMissingDependency indicates the dbt executable could not be started outside an operation (version --dbt)
	ExitMissingDependency = shared.ExitMissingDependency

	// ExitTimeout indicates a probe outside an operation timed out
	ExitTimeout = shared.ExitTimeout
)

// NewExitError creates a new exit error with the given code (re-exported from shared).
func NewExitError(code int) error {
	return shared.NewExitError(code)
}

// ExitCode returns the exit code from an error (re-exported from shared).
func ExitCode(err error) int {
	return shared.ExitCode(err)
}
