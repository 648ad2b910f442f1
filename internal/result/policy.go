package result

import (
	"fmt"
	"strings"

	"github.com/mcp-tools/dbt-cli-mcp/internal/executor"
)

// SuccessPolicy decides whether a process outcome counts as success.
type SuccessPolicy func(*executor.Outcome) bool

// Policy names accepted in configuration.
const (
	PolicyExitCode = "exit_code"
	PolicyStrict   = "strict"
)

// ExitCodeZero succeeds iff the exit status is exactly zero. Standard error
// is ignored: the tool emits warnings there on success.
func ExitCodeZero(o *executor.Outcome) bool {
	return o != nil && o.ExitCode == 0
}

// Strict additionally fails a zero exit when standard error reports an
// error or failure, for operations that exit 0 on partial failure.
func Strict(o *executor.Outcome) bool {
	if !ExitCodeZero(o) {
		return false
	}
	for _, line := range strings.Split(o.Stderr, "\n") {
		if strings.Contains(line, "ERROR") || strings.Contains(line, "FAIL") {
			return false
		}
	}
	return true
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (SuccessPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyExitCode:
		return ExitCodeZero, nil
	case PolicyStrict:
		return Strict, nil
	default:
		return nil, fmt.Errorf("unknown success policy %q", name)
	}
}
