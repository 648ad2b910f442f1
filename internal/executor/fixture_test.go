package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
)

func mustBuild(t *testing.T, op invocation.Operation, opts invocation.Options) invocation.Invocation {
	t.Helper()
	if opts.Executable == "" {
		opts.Executable = "dbt"
	}
	if opts.WorkDir == "" {
		opts.WorkDir = t.TempDir()
	}
	inv, err := invocation.Build(op, opts)
	require.NoError(t, err)
	return inv
}

func TestFixtureRunner_Matching(t *testing.T) {
	t.Parallel()

	r := NewFixtureRunner(
		Fixture{Operation: "ls", Match: []string{"--output", "name"}, Stdout: "customers\norders\n"},
		Fixture{Operation: "ls", Stdout: `{"name":"customers","resource_type":"model"}`},
		Fixture{Operation: "run", ExitCode: 1, Stderr: "Compilation Error in model X\n"},
	)

	tests := map[string]struct {
		op         invocation.Operation
		opts       invocation.Options
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		"specific match first": {
			op:         invocation.List,
			opts:       invocation.Options{OutputFormat: "name"},
			wantStdout: "customers\norders\n",
		},
		"falls back to operation-only fixture": {
			op:         invocation.List,
			wantStdout: `{"name":"customers","resource_type":"model"}`,
		},
		"failing fixture": {
			op:         invocation.Run,
			wantCode:   1,
			wantStderr: "Compilation Error in model X\n",
		},
		"no fixture": {
			op:         invocation.Deps,
			wantCode:   1,
			wantStderr: "no fixture registered for: deps\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			out, err := r.Run(context.Background(), mustBuild(t, tt.op, tt.opts))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, out.ExitCode)
			assert.Equal(t, tt.wantStdout, out.Stdout)
			assert.Equal(t, tt.wantStderr, out.Stderr)
		})
	}
}

func TestFixtureRunner_RecordsCalls(t *testing.T) {
	t.Parallel()

	r := NewFixtureRunner().With(Fixture{Operation: "run", Stdout: "ok"})
	inv := mustBuild(t, invocation.Run, invocation.Options{Models: "customers"})

	_, err := r.Run(context.Background(), inv)
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "run", calls[0].Operation)
	assert.Equal(t, []string{"run", "--select", "customers"}, calls[0].Args)
	assert.Equal(t, inv.WorkDir, calls[0].WorkDir)
}

func TestFixtureRunner_LaunchError(t *testing.T) {
	t.Parallel()

	r := NewFixtureRunner(Fixture{Operation: "debug", LaunchError: "executable file not found in $PATH"})
	out, err := r.Run(context.Background(), mustBuild(t, invocation.Debug, invocation.Options{}))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.Is(err, apperrors.LaunchFailure))
}

func TestFixtureRunner_Delay(t *testing.T) {
	t.Parallel()

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		r := NewFixtureRunner(Fixture{Operation: "build", Delay: time.Minute})
		inv := mustBuild(t, invocation.BuildOp, invocation.Options{Timeout: 50 * time.Millisecond})

		out, err := r.Run(context.Background(), inv)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Timeout))
		require.NotNil(t, out)
		assert.Equal(t, -1, out.ExitCode)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		r := NewFixtureRunner(Fixture{Operation: "build", Delay: time.Minute})
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(50*time.Millisecond, cancel)

		_, err := r.Run(ctx, mustBuild(t, invocation.BuildOp, invocation.Options{}))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Cancelled))
	})

	t.Run("completes", func(t *testing.T) {
		t.Parallel()
		r := NewFixtureRunner(Fixture{Operation: "build", Delay: 10 * time.Millisecond, Stdout: "done"})
		out, err := r.Run(context.Background(), mustBuild(t, invocation.BuildOp, invocation.Options{}))
		require.NoError(t, err)
		assert.Equal(t, "done", out.Stdout)
	})
}

func TestLoadFixtures(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "fixtures.yaml")
		content := `fixtures:
  - operation: ls
    match: ["--output", "name"]
    stdout: |
      customers
  - operation: run
    exit_code: 1
    stderr: "Database Error"
    delay: 10ms
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		r, err := LoadFixtures(path)
		require.NoError(t, err)
		require.Len(t, r.fixtures, 2)
		assert.Equal(t, "customers\n", r.fixtures[0].Stdout)
		assert.Equal(t, 1, r.fixtures[1].ExitCode)
		assert.Equal(t, 10*time.Millisecond, r.fixtures[1].Delay)
	})

	t.Run("missing operation", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "fixtures.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fixtures:\n  - stdout: x\n"), 0o644))
		_, err := LoadFixtures(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "operation is required")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFixtures(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
