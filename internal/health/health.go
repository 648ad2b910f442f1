// Package health runs the environment checks behind the doctor command.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcp-tools/dbt-cli-mcp/internal/config"
)

// ProjectFile marks the root of a dbt project.
const ProjectFile = "dbt_project.yml"

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string

	// Optional checks are reported but do not fail the report.
	Optional bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// VersionProber asks the configured executable for its version.
type VersionProber interface {
	Version(ctx context.Context, projectDir string) (string, error)
}

// RunHealthChecks runs all health checks against cfg and returns a report.
// The version check goes through prober so it honours mock mode and the
// configured timeout.
func RunHealthChecks(ctx context.Context, cfg config.Configuration, prober VersionProber) *HealthReport {
	report := &HealthReport{
		Checks: make([]CheckResult, 0, 4),
		Passed: true,
	}

	add := func(check CheckResult) {
		report.Checks = append(report.Checks, check)
		if !check.Passed && !check.Optional {
			report.Passed = false
		}
	}

	exeCheck := CheckExecutable(cfg)
	add(exeCheck)
	if exeCheck.Passed {
		add(CheckVersion(ctx, cfg, prober))
	}
	add(CheckProject(cfg.ProjectDir))
	add(CheckEnvFile(cfg.ProjectDir, cfg.EnvFile))

	return report
}

// CheckExecutable checks that the dbt executable resolves to a regular file.
// In mock mode no process is started, so the check passes.
func CheckExecutable(cfg config.Configuration) CheckResult {
	if cfg.MockFixtures != "" {
		return CheckResult{
			Name:    "dbt executable",
			Passed:  true,
			Message: fmt.Sprintf("mock mode (fixtures: %s)", cfg.MockFixtures),
		}
	}

	resolved, err := config.ValidateExecutablePath(cfg.DBTPath)
	if err != nil {
		return CheckResult{
			Name:    "dbt executable",
			Passed:  false,
			Message: fmt.Sprintf("%s (set dbt_path or DBT_PATH)", err),
		}
	}

	return CheckResult{
		Name:    "dbt executable",
		Passed:  true,
		Message: resolved,
	}
}

// CheckVersion runs `dbt --version` and reports the first line of output.
func CheckVersion(ctx context.Context, cfg config.Configuration, prober VersionProber) CheckResult {
	out, err := prober.Version(ctx, cfg.ProjectDir)
	if err != nil {
		return CheckResult{
			Name:    "dbt version",
			Passed:  false,
			Message: err.Error(),
		}
	}

	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	if line == "" {
		line = "version reported no output"
	}
	return CheckResult{
		Name:    "dbt version",
		Passed:  true,
		Message: line,
	}
}

// CheckProject checks that dir contains dbt_project.yml.
func CheckProject(dir string) CheckResult {
	path := filepath.Join(dir, ProjectFile)
	if _, err := os.Stat(path); err != nil {
		return CheckResult{
			Name:    "dbt project",
			Passed:  false,
			Message: fmt.Sprintf("%s not found in %s (set project_dir or DBT_PROJECT_DIR)", ProjectFile, dir),
		}
	}

	return CheckResult{
		Name:    "dbt project",
		Passed:  true,
		Message: path,
	}
}

// CheckEnvFile reports whether the environment file exists. A missing file
// is allowed.
func CheckEnvFile(dir, envFile string) CheckResult {
	if envFile == "" {
		return CheckResult{Name: "Environment file", Passed: true, Optional: true, Message: "not configured"}
	}
	path := envFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return CheckResult{
			Name:     "Environment file",
			Passed:   false,
			Optional: true,
			Message:  fmt.Sprintf("%s not found (optional)", path),
		}
	}

	return CheckResult{
		Name:     "Environment file",
		Passed:   true,
		Optional: true,
		Message:  path,
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder

	for _, check := range report.Checks {
		mark := "✓"
		if !check.Passed {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s: %s\n", mark, check.Name, check.Message)
	}

	return b.String()
}
