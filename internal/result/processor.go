package result

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/format"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

// Options control how a result is rendered.
type Options struct {
	// Formatter shapes a successful payload. Nil means format.Default.
	Formatter format.Formatter

	// IncludeDiagnostics appends command details to failures.
	IncludeDiagnostics bool
}

// Response is the caller-facing rendering of a result. Text is never empty.
type Response struct {
	Text     string
	Success  bool
	Kind     apperrors.Kind
	ExitCode int
}

// Process renders res. Every operation passes through here; it never panics
// and always returns non-empty text, with the outcome also carried in
// Success and Kind for callers that branch on it.
func Process(res *Result, opts Options) Response {
	if res == nil {
		return Response{Text: "Error executing dbt: no result was produced", Kind: apperrors.ExecutionFailure, ExitCode: -1}
	}
	resp := Response{Success: res.Success, Kind: res.Kind, ExitCode: res.ExitCode}

	if !res.Success {
		resp.Text = failureText(res, opts.IncludeDiagnostics)
		return resp
	}

	formatter := opts.Formatter
	if formatter == nil {
		formatter = format.Default
	}
	resp.Text = applyFormatter(res, formatter)
	if strings.TrimSpace(resp.Text) == "" {
		resp.Text = fmt.Sprintf("%s completed successfully", res.Operation.Display())
	}
	return resp
}

// applyFormatter runs formatter, falling back to the raw output if it panics.
func applyFormatter(res *Result, formatter format.Formatter) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logging.For("result").Warn().
				Str("kind", apperrors.FormattingDegraded.String()).
				Str("operation", string(res.Operation)).
				Interface("panic", r).
				Msg("formatter failed, returning raw output")
			text = res.Stdout
		}
	}()
	return formatter(res.Payload)
}

func failureText(res *Result, diagnostics bool) string {
	var b strings.Builder
	b.WriteString(res.Error)
	if b.Len() == 0 {
		fmt.Fprintf(&b, "%s: failed", errorPrefix(res.Operation))
	}
	if res.diagnosticFromStderr && strings.TrimSpace(res.Stdout) != "" {
		fmt.Fprintf(&b, "\nOutput: %s", strings.TrimSpace(res.Stdout))
	}
	if diagnostics || res.Operation == invocation.List {
		b.WriteString(diagnosticBlock(res))
	}
	return b.String()
}

func diagnosticBlock(res *Result) string {
	var b strings.Builder
	b.WriteString("\n\nCommand details:")
	fmt.Fprintf(&b, "\nOperation: %s", res.Operation.Display())
	if res.Command != "" {
		fmt.Fprintf(&b, "\nCommand: %s", res.Command)
	}
	if res.WorkDir != "" {
		fmt.Fprintf(&b, "\nWorking directory: %s", res.WorkDir)
	}
	fmt.Fprintf(&b, "\nReturn code: %d", res.ExitCode)
	fmt.Fprintf(&b, "\nError kind: %s", res.Kind)
	if res.Duration > 0 {
		fmt.Fprintf(&b, "\nDuration: %s", res.Duration.Round(time.Millisecond))
	}
	return b.String()
}
