// Package cli tests root command wiring, global flags and exit codes.
// Related: internal/cli/root.go, internal/cli/exit_codes.go
// Tags: cli, root, commands, exit-codes

package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	"github.com/mcp-tools/dbt-cli-mcp/internal/executor"
	"github.com/mcp-tools/dbt-cli-mcp/internal/testutil"
)

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestRootCmd_Commands(t *testing.T) {
	want := []string{
		"build", "compile", "config", "configure", "debug", "deps", "doctor",
		"ls", "run", "seed", "serve", "show", "test", "version",
	}
	names := make(map[string]bool)
	for _, cmd := range RootCmd().Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range want {
		assert.True(t, names[name], "missing command %s", name)
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	for _, name := range []string{"config", "dbt-path", "env-file", "log-level", "format", "timeout", "fixtures", "diagnostics"} {
		assert.NotNil(t, RootCmd().PersistentFlags().Lookup(name), "missing global flag --%s", name)
	}
	assert.Equal(t, "c", RootCmd().PersistentFlags().Lookup("config").Shorthand)
}

func TestRootCmd_Groups(t *testing.T) {
	ids := make(map[string]bool)
	for _, g := range RootCmd().Groups() {
		ids[g.ID] = true
	}
	for _, id := range []string{GroupGettingStarted, GroupOperations, GroupServer, GroupConfiguration} {
		assert.True(t, ids[id], "missing group %s", id)
	}
	for _, cmd := range RootCmd().Commands() {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			continue
		}
		assert.NotEmpty(t, cmd.GroupID, "command %s has no group", cmd.Name())
	}
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitOperationFailed)
	assert.Equal(t, 3, ExitInvalidArguments)
	assert.Equal(t, 4, ExitMissingDependency)
	assert.Equal(t, 5, ExitTimeout)
	assert.Equal(t, ExitTimeout, ExitCode(NewExitError(ExitTimeout)))
	assert.Equal(t, ExitSuccess, ExitCode(nil))
}

func TestExecute(t *testing.T) {
	// Not parallel: drives the package-level root command.
	for _, key := range []string{"DBT_PATH", "DBT_PROJECT_DIR", "ENV_FILE", "LOG_LEVEL", "DBT_MCP_TIMEOUT",
		"DBT_MCP_MOCK_FIXTURES", "DBT_MCP_INCLUDE_DIAGNOSTICS", "DBT_MCP_OUTPUT_FORMAT"} {
		t.Setenv(key, "")
	}
	color.NoColor = true

	dir := testutil.CreateTempProject(t)
	fixtures := testutil.WriteFixtureFile(t, dir,
		executor.Fixture{Operation: "build", Stdout: "Completed successfully"},
		executor.Fixture{Operation: "run", Delay: 10 * time.Second},
	)
	base := []string{"--config", filepath.Join(dir, "none.json"), "--fixtures", fixtures, "--log-level", "ERROR"}

	tests := map[string]struct {
		args       []string
		wantCode   int
		wantOut    string
		wantStderr string
	}{
		"success": {
			args:    []string{"build", "--project-dir", dir},
			wantOut: "Completed successfully\n",
		},
		"timeout exits 1": {
			args:     []string{"run", "--project-dir", dir, "--timeout", "1"},
			wantCode: ExitOperationFailed,
			wantOut:  "Error executing dbt run:",
		},
		"invalid format is reported on stderr": {
			args:       []string{"debug", "--format", "xml"},
			wantCode:   ExitInvalidArguments,
			wantStderr: "Configuration Error:",
		},
		"unknown command": {
			args:       []string{"snapshot"},
			wantCode:   ExitOperationFailed,
			wantStderr: "unknown command",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			resetFlags(rootCmd)
			var out, errOut bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&errOut)
			rootCmd.SetArgs(append(append([]string{}, tt.args...), base...))
			t.Cleanup(func() {
				rootCmd.SetOut(nil)
				rootCmd.SetErr(nil)
				rootCmd.SetArgs(nil)
			})

			err := ExecuteContext(context.Background())
			assert.Equal(t, tt.wantCode, ExitCode(err))
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, errOut.String(), tt.wantStderr)
			}
		})
	}
}
