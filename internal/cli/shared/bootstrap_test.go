package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-tools/dbt-cli-mcp/internal/config"
	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
)

// newFlagCmd returns a command carrying the global flags, parsed from args.
func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string
		want map[string]any
	}{
		"no flags": {
			want: map[string]any{},
		},
		"string and int flags": {
			args: []string{"--dbt-path", "/opt/dbt", "--timeout", "30"},
			want: map[string]any{"dbt_path": "/opt/dbt", "timeout": 30},
		},
		"bool flag": {
			args: []string{"--diagnostics"},
			want: map[string]any{"include_diagnostics": true},
		},
		"format and fixtures": {
			args: []string{"--format", "json", "--fixtures", "f.yaml", "--log-level", "DEBUG"},
			want: map[string]any{"output_format": "json", "mock_fixtures": "f.yaml", "log_level": "DEBUG"},
		},
		"config flag is not an override": {
			args: []string{"--config", "/tmp/x.json", "--env-file", ".env.ci"},
			want: map[string]any{"env_file": ".env.ci"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := Overrides(newFlagCmd(t, tt.args...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/tmp/cfg.json", ConfigPath(newFlagCmd(t, "-c", "/tmp/cfg.json")))
	assert.Equal(t, config.DefaultConfigPath(), ConfigPath(newFlagCmd(t)))
}

func TestLoadConfig(t *testing.T) {
	// Not parallel: clears process environment.
	for _, key := range []string{"DBT_PATH", "DBT_PROJECT_DIR", "ENV_FILE", "LOG_LEVEL", "DBT_MCP_TIMEOUT",
		"DBT_MCP_MOCK_FIXTURES", "DBT_MCP_OUTPUT_FORMAT", "DBT_MCP_INCLUDE_DIAGNOSTICS"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"dbt_path": "/from/file", "timeout": 60}`), 0o644))

	t.Run("flags override file", func(t *testing.T) {
		cfg, err := LoadConfig(newFlagCmd(t, "-c", cfgPath, "--timeout", "5", "--format", "yaml"))
		require.NoError(t, err)
		assert.Equal(t, "/from/file", cfg.DBTPath)
		assert.Equal(t, 5, cfg.Timeout)
		assert.Equal(t, config.OutputFormatYAML, OutputFormat(cfg))
	})

	t.Run("invalid format is a configuration error", func(t *testing.T) {
		_, err := LoadConfig(newFlagCmd(t, "-c", cfgPath, "--format", "xml"))
		require.Error(t, err)
		assert.Equal(t, apperrors.Configuration, apperrors.KindOf(err))
		assert.Equal(t, ExitInvalidArguments, ExitCode(err))
	})

	t.Run("missing fixtures fail service construction", func(t *testing.T) {
		_, _, err := Bootstrap(newFlagCmd(t, "-c", cfgPath, "--fixtures", filepath.Join(dir, "none.yaml")))
		require.Error(t, err)
		assert.Equal(t, apperrors.Configuration, apperrors.KindOf(err))
	})

	t.Run("fixtures select mock mode", func(t *testing.T) {
		fixtures := filepath.Join(dir, "fixtures.yaml")
		require.NoError(t, os.WriteFile(fixtures, []byte("fixtures:\n  - operation: debug\n    stdout: ok\n"), 0o644))
		svc, cfg, err := Bootstrap(newFlagCmd(t, "-c", cfgPath, "--fixtures", fixtures))
		require.NoError(t, err)
		assert.Equal(t, fixtures, cfg.MockFixtures)
		assert.NotNil(t, svc)
	})
}
