// Package dbt_test tests the operation service end to end against fixture
// and process runners.
// Related: internal/dbt/service.go, internal/dbt/operations.go
// Tags: dbt, service, operations, configure

package dbt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-tools/dbt-cli-mcp/internal/config"
	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/executor"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/testutil"
)

func testConfig(projectDir string) *config.Configuration {
	return &config.Configuration{
		DBTPath:      "dbt",
		ProjectDir:   projectDir,
		EnvFile:      ".env",
		LogLevel:     "INFO",
		Timeout:      30,
		KillGrace:    1,
		OutputFormat: "text",
	}
}

func newFixtureService(t *testing.T, cfg *config.Configuration, fixtures ...executor.Fixture) (*Service, *executor.FixtureRunner) {
	t.Helper()
	runner := executor.NewFixtureRunner(fixtures...)
	return New(config.NewRuntime(cfg), runner), runner
}

func TestServiceExecute(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		op          invocation.Operation
		req         Request
		fixtures    []executor.Fixture
		strict      []string
		wantSuccess bool
		wantKind    apperrors.Kind
		wantText    string
		wantContain []string
		wantCalls   int
	}{
		"run success": {
			op:          invocation.Run,
			req:         Request{Models: "customers"},
			fixtures:    []executor.Fixture{{Operation: "run", Match: []string{"customers"}, Stdout: "Completed successfully\n"}},
			wantSuccess: true,
			wantText:    "Completed successfully\n",
			wantCalls:   1,
		},
		"empty output": {
			op:          invocation.Deps,
			fixtures:    []executor.Fixture{{Operation: "deps"}},
			wantSuccess: true,
			wantText:    "dbt deps completed successfully",
			wantCalls:   1,
		},
		"show without models": {
			op:          invocation.Show,
			wantKind:    apperrors.InvalidOptions,
			wantContain: []string{"Error executing dbt show", "models is required"},
		},
		"compile failure": {
			op: invocation.Compile,
			fixtures: []executor.Fixture{{
				Operation: "compile",
				ExitCode:  1,
				Stderr:    "Compilation Error in model orders\n",
			}},
			wantKind:    apperrors.ExecutionFailure,
			wantContain: []string{"Error executing dbt compile", "Compilation Error in model orders"},
			wantCalls:   1,
		},
		"strict test": {
			op:          invocation.Test,
			strict:      []string{"test"},
			fixtures:    []executor.Fixture{{Operation: "test", Stdout: "Done.\n", Stderr: "FAIL 1 not_null_orders_id\n"}},
			wantKind:    apperrors.ExecutionFailure,
			wantContain: []string{"Error executing dbt test", "FAIL 1 not_null_orders_id", "Output: Done."},
			wantCalls:   1,
		},
		"launch failure": {
			op:          invocation.Debug,
			fixtures:    []executor.Fixture{{Operation: "debug", LaunchError: "executable file not found"}},
			wantKind:    apperrors.LaunchFailure,
			wantContain: []string{"Error executing dbt debug", "executable file not found"},
			wantCalls:   1,
		},
		"list json": {
			op: invocation.List,
			fixtures: []executor.Fixture{{
				Operation: "ls",
				Match:     []string{"--output", "json"},
				Stdout:    `{"name":"customers","resource_type":"model","unique_id":"model.jaffle_shop.customers"}` + "\n",
			}},
			wantSuccess: true,
			wantText:    "[\n  {\n    \"name\": \"customers\",\n    \"resource_type\": \"model\",\n    \"path\": \"jaffle_shop.customers\"\n  }\n]",
			wantCalls:   1,
		},
		"list names": {
			op:          invocation.List,
			req:         Request{OutputFormat: "name"},
			fixtures:    []executor.Fixture{{Operation: "ls", Match: []string{"name"}, Stdout: "customers\norders\n"}},
			wantSuccess: true,
			wantText:    "customers\norders\n",
			wantCalls:   1,
		},
		"show preview": {
			op:  invocation.Show,
			req: Request{Models: "customers", Limit: 2},
			fixtures: []executor.Fixture{{
				Operation: "show",
				Match:     []string{"--limit", "2"},
				Stdout:    "Previewing node 'customers':\n| id | name |\n| -- | ---- |\n| 1  | Ann  |\n| 2  | Bob  |\n",
			}},
			wantSuccess: true,
			wantText:    `[{"id":"1","name":"Ann"},{"id":"2","name":"Bob"}]`,
			wantCalls:   1,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t.TempDir())
			cfg.StrictOperations = tc.strict
			svc, runner := newFixtureService(t, cfg, tc.fixtures...)

			resp := svc.Execute(context.Background(), tc.op, tc.req)

			assert.Equal(t, tc.wantSuccess, resp.Success)
			assert.Equal(t, tc.wantKind, resp.Kind)
			assert.NotEmpty(t, resp.Text)
			if tc.wantText != "" {
				assert.Equal(t, tc.wantText, resp.Text)
			}
			for _, want := range tc.wantContain {
				assert.Contains(t, resp.Text, want)
			}
			assert.Len(t, runner.Calls(), tc.wantCalls)
		})
	}
}

func TestServiceOperations(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t.TempDir())
	var fixtures []executor.Fixture
	for _, op := range invocation.Operations() {
		fixtures = append(fixtures, executor.Fixture{Operation: string(op), Stdout: "ok " + string(op)})
	}
	svc, runner := newFixtureService(t, cfg, fixtures...)
	ctx := context.Background()

	calls := map[invocation.Operation]func() string{
		invocation.Run:     func() string { return svc.Run(ctx, Request{}).Text },
		invocation.Test:    func() string { return svc.Test(ctx, Request{}).Text },
		invocation.Compile: func() string { return svc.Compile(ctx, Request{}).Text },
		invocation.Debug:   func() string { return svc.Debug(ctx, Request{}).Text },
		invocation.Deps:    func() string { return svc.Deps(ctx, Request{}).Text },
		invocation.Seed:    func() string { return svc.Seed(ctx, Request{}).Text },
		invocation.Show:    func() string { return svc.Show(ctx, Request{Models: "customers"}).Text },
		invocation.BuildOp: func() string { return svc.Build(ctx, Request{}).Text },
		invocation.List:    func() string { return svc.List(ctx, Request{OutputFormat: "path"}).Text },
	}
	for op, call := range calls {
		assert.Equal(t, "ok "+string(op), call(), "operation %s", op)
	}
	assert.Len(t, runner.Calls(), len(calls))
}

func TestServiceProjectDir(t *testing.T) {
	t.Parallel()

	configured := t.TempDir()
	override := t.TempDir()
	svc, runner := newFixtureService(t, testConfig(configured), executor.Fixture{Operation: "debug"})

	svc.Debug(context.Background(), Request{})
	svc.Debug(context.Background(), Request{ProjectDir: override})

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, configured, calls[0].WorkDir)
	assert.Equal(t, override, calls[1].WorkDir)
	assert.True(t, filepath.IsAbs(calls[0].WorkDir))
}

func TestServiceResult(t *testing.T) {
	t.Parallel()

	svc, _ := newFixtureService(t, testConfig(t.TempDir()),
		executor.Fixture{Operation: "run", Stdout: `{"status":"success"}`})

	res := svc.Result(context.Background(), invocation.Run, Request{Models: "orders"})

	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.True(t, res.Payload.Structured)
	assert.Equal(t, "dbt run --select orders", res.Command)
}

func TestServiceTimeout(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t.TempDir())
	cfg.Timeout = 1
	svc, _ := newFixtureService(t, cfg, executor.Fixture{Operation: "build", Delay: 5 * time.Second})

	start := time.Now()
	resp := svc.Build(context.Background(), Request{})

	assert.False(t, resp.Success)
	assert.Equal(t, apperrors.Timeout, resp.Kind)
	assert.Contains(t, resp.Text, "Error executing dbt build")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestServiceConfigure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exe := filepath.Join(dir, "dbt-custom")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))

	tests := map[string]struct {
		path    string
		wantErr string
		wantExe string
	}{
		"valid file": {
			path:    exe,
			wantExe: exe,
		},
		"missing file": {
			path:    filepath.Join(dir, "nope"),
			wantErr: "file not found",
			wantExe: "dbt",
		},
		"directory": {
			path:    dir,
			wantErr: "not a regular file",
			wantExe: "dbt",
		},
		"empty": {
			path:    "  ",
			wantErr: "executable path is empty",
			wantExe: "dbt",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newFixtureService(t, testConfig(dir))
			msg, err := svc.Configure(tc.path)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				assert.Equal(t, apperrors.InvalidOptions, apperrors.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "dbt path configured to: "+exe, msg)
			}
			assert.Equal(t, tc.wantExe, svc.Runtime().Executable())
		})
	}
}

func TestServiceConfigureAppliesToNextInvocation(t *testing.T) {
	fake := testutil.NewMockDBTBuilder(t).WithResponse("debug", "All checks passed!\n").Build()
	project := testutil.CreateTempProject(t)

	cfg := testConfig(project)
	cfg.DBTPath = filepath.Join(project, "missing-dbt")
	svc := New(config.NewRuntime(cfg), executor.NewProcessRunner(10*time.Second, time.Second))

	before := svc.Debug(context.Background(), Request{})
	assert.Equal(t, apperrors.LaunchFailure, before.Kind)
	fake.AssertNotCalled(t)

	_, err := svc.Configure(fake.Path)
	require.NoError(t, err)

	after := svc.Debug(context.Background(), Request{})
	assert.True(t, after.Success)
	assert.Equal(t, "All checks passed!\n", after.Text)
	assert.Equal(t, 1, fake.GetCallCount())
}

func TestServiceProcessEnvironment(t *testing.T) {
	fake := testutil.NewMockDBTBuilder(t).
		WithResponse("run", "").
		ThenEchoEnv("DBT_TARGET", "DBT_PROFILES_DIR").
		Build()
	project := testutil.CreateTempProject(t, testutil.WithEnv(map[string]string{"DBT_TARGET": "ci"}))
	t.Setenv("DBT_PROFILES_DIR", "")
	os.Unsetenv("DBT_PROFILES_DIR")

	cfg := testConfig(project)
	cfg.DBTPath = fake.Path
	svc := New(config.NewRuntime(cfg), executor.NewProcessRunner(10*time.Second, time.Second))

	resp := svc.Run(context.Background(), Request{Models: "customers", FullRefresh: true})

	require.True(t, resp.Success, resp.Text)
	resolved, err := filepath.EvalSymlinks(project)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(resp.Text), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "DBT_TARGET=ci", lines[0])
	profiles := strings.TrimPrefix(lines[1], "DBT_PROFILES_DIR=")
	if r, err := filepath.EvalSymlinks(profiles); err == nil {
		profiles = r
	}
	assert.Equal(t, resolved, profiles)
	fake.AssertCalled(t, "run", "--select customers --full-refresh")
}

func TestServiceVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		fixture executor.Fixture
		want    string
		wantErr string
	}{
		"reports version": {
			fixture: executor.Fixture{Operation: "version", Stdout: "Core:\n  - installed: 1.8.0\n"},
			want:    "Core:\n  - installed: 1.8.0",
		},
		"nonzero exit": {
			fixture: executor.Fixture{Operation: "version", ExitCode: 2, Stderr: "bad install\n"},
			wantErr: "exited with status 2: bad install",
		},
		"launch failure": {
			fixture: executor.Fixture{Operation: "version", LaunchError: "not found"},
			wantErr: "not found",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc, runner := newFixtureService(t, testConfig(t.TempDir()), tc.fixture)
			got, err := svc.Version(context.Background(), "")

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			require.Len(t, runner.Calls(), 1)
			assert.Equal(t, []string{"--version"}, runner.Calls()[0].Args)
		})
	}
}

func TestNewRunner(t *testing.T) {
	t.Parallel()

	t.Run("process runner by default", func(t *testing.T) {
		t.Parallel()
		runner, err := NewRunner(testConfig("."))
		require.NoError(t, err)
		pr, ok := runner.(*executor.ProcessRunner)
		require.True(t, ok)
		assert.Equal(t, 30*time.Second, pr.Timeout)
		assert.Equal(t, time.Second, pr.KillGrace)
	})

	t.Run("fixture runner in mock mode", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(".")
		cfg.MockFixtures = testutil.WriteFixtureFile(t, t.TempDir(), executor.Fixture{Operation: "run"})
		runner, err := NewRunner(cfg)
		require.NoError(t, err)
		fr, ok := runner.(*executor.FixtureRunner)
		require.True(t, ok)
		assert.Equal(t, 30*time.Second, fr.Timeout)
	})

	t.Run("missing fixture file", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(".")
		cfg.MockFixtures = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := NewRunner(cfg)
		require.Error(t, err)
		assert.Equal(t, apperrors.Configuration, apperrors.KindOf(err))
	})
}

func TestServiceRespond(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t.TempDir())
	cfg.IncludeDiagnostics = true
	svc, _ := newFixtureService(t, cfg,
		executor.Fixture{Operation: "ls", Stdout: "model.jaffle_shop.orders\n"},
		executor.Fixture{Operation: "seed", ExitCode: 1, Stderr: "Database Error\n"},
	)

	req := Request{}
	listed := svc.Respond(svc.Result(context.Background(), invocation.List, req), req)
	assert.True(t, listed.Success)
	assert.Contains(t, listed.Text, `"path": "jaffle_shop.orders"`)

	failed := svc.Respond(svc.Result(context.Background(), invocation.Seed, req), req)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Text, "Command details:")

	assert.Equal(t, "Error executing dbt: no result was produced", svc.Respond(nil, req).Text)
}
