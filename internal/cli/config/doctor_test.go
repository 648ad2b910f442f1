// Package config tests CLI configuration commands for dbt-cli-mcp.
// Related: internal/cli/config/doctor.go
// Tags: config, cli, doctor, health

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
	"github.com/mcp-tools/dbt-cli-mcp/internal/executor"
	"github.com/mcp-tools/dbt-cli-mcp/internal/testutil"
)

func TestDoctorCmd_Structure(t *testing.T) {
	assert.Equal(t, "doctor", doctorCmd.Use)
	assert.NotEmpty(t, doctorCmd.Short)
	assert.NotEmpty(t, doctorCmd.Long)
	assert.NotEmpty(t, doctorCmd.Example)
	assert.Contains(t, doctorCmd.Aliases, "doc", "Should have 'doc' alias")
	assert.NotNil(t, doctorCmd.RunE)
}

func TestDoctor(t *testing.T) {
	clearEnv(t)

	tests := map[string]struct {
		fixtures    []executor.Fixture
		withProject bool
		wantCode    int
		contains    []string
	}{
		"all checks pass": {
			fixtures:    []executor.Fixture{{Operation: "version", Stdout: "Core:\n  - installed: 1.8.0\n"}},
			withProject: true,
			contains: []string{
				"✓ dbt executable: mock mode",
				"✓ dbt version: Core:",
				"✓ dbt project:",
				"✗ Environment file:",
				"(optional)",
			},
		},
		"version failure fails the report": {
			fixtures:    []executor.Fixture{{Operation: "version", ExitCode: 1, Stderr: "broken install"}},
			withProject: true,
			wantCode:    shared.ExitOperationFailed,
			contains:    []string{"✗ dbt version:", "broken install"},
		},
		"missing project fails the report": {
			fixtures: []executor.Fixture{{Operation: "version", Stdout: "1.8.0"}},
			wantCode: shared.ExitOperationFailed,
			contains: []string{"✗ dbt project: dbt_project.yml not found"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.withProject {
				dir = testutil.CreateTempProject(t)
			}
			fixtures := testutil.WriteFixtureFile(t, t.TempDir(), tt.fixtures...)

			out, err := execute(t, "doctor",
				"--config", filepath.Join(dir, "none.json"),
				"--fixtures", fixtures,
				"--log-level", "ERROR",
				"--project-dir", dir,
			)
			assert.Equal(t, tt.wantCode, shared.ExitCode(err))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}
