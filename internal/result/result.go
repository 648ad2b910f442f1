// Package result converts process outcomes into one canonical record and
// renders that record for callers.
package result

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/executor"
	"github.com/mcp-tools/dbt-cli-mcp/internal/format"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
)

// Result is the canonical record of one invocation. It is created once by
// Normalize and read once by Process.
type Result struct {
	Operation invocation.Operation
	Success   bool

	// Payload is parsed standard output on success, raw standard output
	// otherwise.
	Payload format.Payload

	// Error is set iff Success is false.
	Error string

	Stdout   string
	Stderr   string
	ExitCode int
	Kind     apperrors.Kind
	Duration time.Duration

	// Command and WorkDir describe what was run, for diagnostics.
	Command string
	WorkDir string

	// diagnosticFromStderr records which stream Error quoted.
	diagnosticFromStderr bool
}

// RawOutput returns both captured streams. It is retained even on success
// because standard error may carry warnings.
func (r *Result) RawOutput() string {
	switch {
	case r.Stderr == "":
		return r.Stdout
	case r.Stdout == "":
		return r.Stderr
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Normalize builds the canonical record from what the runner returned.
// runErr is the runner's error, if any; outcome may be nil for launch
// failures. A nil policy means ExitCodeZero.
func Normalize(inv invocation.Invocation, outcome *executor.Outcome, runErr error, policy SuccessPolicy) *Result {
	if policy == nil {
		policy = ExitCodeZero
	}
	res := &Result{
		Operation: inv.Operation,
		ExitCode:  -1,
		Command:   inv.CommandLine(),
		WorkDir:   inv.WorkDir,
	}
	if outcome != nil {
		res.Stdout = outcome.Stdout
		res.Stderr = outcome.Stderr
		res.ExitCode = outcome.ExitCode
		res.Duration = outcome.Duration
	}

	if runErr == nil && policy(outcome) {
		res.Success = true
		res.Kind = apperrors.None
		res.Payload = format.ParsePayload(res.Stdout)
		return res
	}

	res.Payload = format.Raw(res.Stdout)
	res.Kind = apperrors.KindOf(runErr)
	if runErr == nil {
		res.Kind = apperrors.ExecutionFailure
	}
	res.Error, res.diagnosticFromStderr = errorMessage(inv.Operation, res, runErr)
	return res
}

// FromError records a failure that happened before any process ran, such
// as invalid options.
func FromError(op invocation.Operation, err error) *Result {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	return &Result{
		Operation: op,
		ExitCode:  -1,
		Kind:      apperrors.KindOf(err),
		Error:     fmt.Sprintf("%s: %s", errorPrefix(op), err.Error()),
		Payload:   format.Raw(""),
	}
}

func errorPrefix(op invocation.Operation) string {
	return "Error executing " + op.Display()
}

// errorMessage builds "Error executing dbt <op>: <diagnostic>". Diagnostic
// text prefers standard error and falls back to standard output so command
// output is never dropped.
func errorMessage(op invocation.Operation, res *Result, runErr error) (string, bool) {
	stderr := strings.TrimSpace(res.Stderr)
	stdout := strings.TrimSpace(res.Stdout)

	var parts []string
	if runErr != nil {
		parts = append(parts, runErr.Error())
	}
	fromStderr := false
	switch {
	case stderr != "":
		parts = append(parts, stderr)
		fromStderr = true
	case stdout != "":
		parts = append(parts, stdout)
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("process exited with status %d and no output", res.ExitCode))
	}
	return fmt.Sprintf("%s: %s", errorPrefix(op), strings.Join(parts, "\n")), fromStderr
}
