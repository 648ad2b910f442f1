// Package dbt exposes each dbt operation as one call that builds the
// invocation, runs it, normalizes the outcome and renders the response.
// Both the MCP server and the CLI go through Service.
package dbt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcp-tools/dbt-cli-mcp/internal/config"
	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/executor"
	"github.com/mcp-tools/dbt-cli-mcp/internal/format"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
	"github.com/mcp-tools/dbt-cli-mcp/internal/result"
)

// Request carries the caller-supplied options for one operation. Fields an
// operation does not use are ignored.
type Request struct {
	// ProjectDir overrides the configured project directory.
	ProjectDir string

	Models       string
	Selector     string
	Exclude      string
	ResourceType string

	// OutputFormat is the ls rendering mode (json, name, path, selector),
	// or "json" to request structured show output.
	OutputFormat string

	Limit       int
	FullRefresh bool
}

// Service runs dbt operations against a runtime configuration.
type Service struct {
	runtime *config.Runtime
	runner  executor.Runner
}

// New creates a service. The runner is chosen once, here; see NewRunner.
func New(rt *config.Runtime, runner executor.Runner) *Service {
	return &Service{runtime: rt, runner: runner}
}

// NewRunner selects the runner for cfg: the fixture runner when
// mock_fixtures is set, a process runner otherwise.
func NewRunner(cfg *config.Configuration) (executor.Runner, error) {
	if cfg.MockFixtures != "" {
		r, err := executor.LoadFixtures(cfg.MockFixtures)
		if err != nil {
			return nil, apperrors.NewConfigError("loading mock fixtures", err,
				"check the mock_fixtures path or unset DBT_MCP_MOCK_FIXTURES")
		}
		r.Timeout = cfg.TimeoutDuration()
		logging.For("dbt").Info().Str("fixtures", cfg.MockFixtures).Msg("mock mode: dbt will not be started")
		return r, nil
	}
	return executor.NewProcessRunner(cfg.TimeoutDuration(), cfg.KillGraceDuration()), nil
}

// Runtime returns the service's runtime configuration.
func (s *Service) Runtime() *config.Runtime {
	return s.runtime
}

// Execute runs op and renders the outcome.
func (s *Service) Execute(ctx context.Context, op invocation.Operation, req Request) result.Response {
	cfg := s.runtime.Snapshot()
	return respond(cfg, s.result(ctx, cfg, op, req), req)
}

// Respond renders a result obtained from Result with the formatter and
// diagnostics setting Execute would use.
func (s *Service) Respond(res *result.Result, req Request) result.Response {
	return respond(s.runtime.Snapshot(), res, req)
}

func respond(cfg config.Configuration, res *result.Result, req Request) result.Response {
	var formatter format.Formatter
	if res != nil {
		formatter = FormatterFor(res.Operation, req)
	}
	return result.Process(res, result.Options{
		Formatter:          formatter,
		IncludeDiagnostics: cfg.IncludeDiagnostics,
	})
}

// Result runs op and returns the canonical result without rendering it.
func (s *Service) Result(ctx context.Context, op invocation.Operation, req Request) *result.Result {
	return s.result(ctx, s.runtime.Snapshot(), op, req)
}

func (s *Service) result(ctx context.Context, cfg config.Configuration, op invocation.Operation, req Request) *result.Result {
	inv, err := invocation.Build(op, s.options(cfg, req))
	if err != nil {
		logging.For("dbt").Warn().Err(err).Str("operation", string(op)).Msg("invalid options")
		return result.FromError(op, err)
	}

	log := logging.For("dbt").With().Str("operation", string(op)).Logger()
	log.Info().Str("command", inv.CommandLine()).Str("dir", inv.WorkDir).Msg("executing")

	outcome, runErr := s.runner.Run(ctx, inv)
	res := result.Normalize(inv, outcome, runErr, policyFor(cfg, op))

	event := log.Info()
	if !res.Success {
		event = log.Warn().Str("kind", res.Kind.String())
	}
	event.Bool("success", res.Success).Int("exit_code", res.ExitCode).Dur("duration", res.Duration).Msg("finished")
	return res
}

func (s *Service) options(cfg config.Configuration, req Request) invocation.Options {
	dir := req.ProjectDir
	if strings.TrimSpace(dir) == "" {
		dir = cfg.ProjectDir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return invocation.Options{
		Executable:   cfg.DBTPath,
		WorkDir:      dir,
		EnvFile:      cfg.EnvFile,
		Models:       req.Models,
		Selector:     req.Selector,
		Exclude:      req.Exclude,
		ResourceType: req.ResourceType,
		OutputFormat: req.OutputFormat,
		Limit:        req.Limit,
		FullRefresh:  req.FullRefresh,
		Timeout:      cfg.TimeoutDuration(),
	}
}

// FormatterFor returns the formatter used for op's successful output.
func FormatterFor(op invocation.Operation, req Request) format.Formatter {
	switch op {
	case invocation.List:
		return format.List(req.OutputFormat)
	case invocation.Show:
		return format.Preview
	default:
		return format.Default
	}
}

func policyFor(cfg config.Configuration, op invocation.Operation) result.SuccessPolicy {
	for _, name := range cfg.StrictOperations {
		if name == string(op) {
			return result.Strict
		}
	}
	return result.ExitCodeZero
}

// Configure changes the dbt executable for subsequent invocations after
// checking that path names an existing regular file. Concurrent calls are
// last-write-wins.
func (s *Service) Configure(path string) (string, error) {
	path = strings.TrimSpace(path)
	if _, err := config.ValidateExecutablePath(path); err != nil {
		return "", apperrors.Wrap(apperrors.InvalidOptions, "configure", err, "invalid dbt path")
	}
	s.runtime.SetExecutable(path)
	logging.For("dbt").Info().Str("dbt_path", path).Msg("dbt executable reconfigured")
	return fmt.Sprintf("dbt path configured to: %s", path), nil
}

// Version asks the configured executable for its version string.
func (s *Service) Version(ctx context.Context, projectDir string) (string, error) {
	cfg := s.runtime.Snapshot()
	if projectDir == "" {
		projectDir = cfg.ProjectDir
	}
	inv := invocation.VersionProbe(cfg.DBTPath, projectDir)
	inv.Timeout = time.Minute

	outcome, err := s.runner.Run(ctx, inv)
	if err != nil {
		return "", err
	}
	if outcome.ExitCode != 0 {
		msg := strings.TrimSpace(outcome.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(outcome.Stdout)
		}
		return "", apperrors.New(apperrors.ExecutionFailure, "version", "%s --version exited with status %d: %s", cfg.DBTPath, outcome.ExitCode, msg)
	}
	return strings.TrimSpace(outcome.Stdout), nil
}
