// Package executor runs one external process per invocation and reports what
// it observed: exit status, separately captured stdout and stderr, and
// wall-clock duration.
package executor

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mcp-tools/dbt-cli-mcp/internal/envfile"
	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

const (
	// DefaultTimeout applies when neither the invocation nor the runner sets one.
	DefaultTimeout = 30 * time.Minute

	// DefaultKillGrace is how long a terminated process group gets to exit
	// after SIGTERM before it is killed.
	DefaultKillGrace = 5 * time.Second
)

// Outcome is what the process told us. It is never mutated after capture.
type Outcome struct {
	// ExitCode is the process exit status. -1 when the process was
	// terminated by a signal or never produced a status.
	ExitCode int

	// Stdout is the decoded standard output.
	Stdout string

	// Stderr is the decoded standard error.
	Stderr string

	// Duration is the wall-clock time from start to exit.
	Duration time.Duration
}

// Runner executes an invocation.
//
// A nonzero exit status is reported in the Outcome, not as an error. The
// error return is reserved for LaunchFailure, Timeout and Cancelled; for the
// latter two the Outcome carries whatever output was captured before abort.
type Runner interface {
	Run(ctx context.Context, inv invocation.Invocation) (*Outcome, error)
}

// ProcessRunner runs real subprocesses.
type ProcessRunner struct {
	// Timeout is the ceiling used when the invocation does not set one.
	Timeout time.Duration

	// KillGrace is the delay between SIGTERM and SIGKILL.
	KillGrace time.Duration

	// BaseEnv returns the ambient environment. Defaults to os.Environ.
	BaseEnv func() []string
}

// NewProcessRunner creates a runner with the given defaults. Zero values
// select DefaultTimeout and DefaultKillGrace.
func NewProcessRunner(timeout, killGrace time.Duration) *ProcessRunner {
	return &ProcessRunner{Timeout: timeout, KillGrace: killGrace}
}

// Run starts the process, waits for it to exit or for the context or timeout
// to fire, and returns the captured outcome.
func (r *ProcessRunner) Run(ctx context.Context, inv invocation.Invocation) (*Outcome, error) {
	op := string(inv.Operation)
	log := logging.For("executor").With().
		Str("invocation_id", uuid.NewString()).
		Str("operation", op).
		Logger()

	if err := ctx.Err(); err != nil {
		return nil, r.abortError(ctx, op, 0)
	}

	env, err := r.buildEnv(inv)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.LaunchFailure, op, err, "preparing environment")
	}

	timeout := r.timeoutFor(inv)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(inv.Executable, inv.Args...)
	cmd.Dir = inv.WorkDir
	cmd.Env = env
	configureProcAttr(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.LaunchFailure, op, err, "creating stdout pipe")
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.LaunchFailure, op, err, "creating stderr pipe")
	}

	log.Debug().Str("command", inv.CommandLine()).Str("dir", inv.WorkDir).Dur("timeout", timeout).Msg("starting process")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("executable", inv.Executable).Msg("failed to start process")
		return nil, &apperrors.Error{
			Kind:        apperrors.LaunchFailure,
			Op:          op,
			Message:     fmt.Sprintf("failed to start %s", inv.Executable),
			Err:         err,
			Remediation: []string{"check that the dbt executable exists and is executable", "check that the project directory exists"},
		}
	}

	var stdout, stderr lockedBuffer
	var drain errgroup.Group
	drain.Go(func() error { _, err := io.Copy(&stdout, stdoutPipe); return err })
	drain.Go(func() error { _, err := io.Copy(&stderr, stderrPipe); return err })

	done := make(chan error, 1)
	go func() {
		if err := drain.Wait(); err != nil {
			log.Debug().Err(err).Msg("output drain ended with error")
		}
		done <- cmd.Wait()
	}()

	var waitErr error
	var abortErr *apperrors.Error
	exited := true
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		abortErr = r.abortError(ctx, op, timeout)
		log.Warn().Str("kind", abortErr.Kind.String()).Int("pid", cmd.Process.Pid).Msg("terminating process group")
		exited, waitErr = r.terminate(cmd, done, log)
	}

	code := -1
	if exited {
		code = exitCode(cmd, waitErr)
	}
	outcome := &Outcome{
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if abortErr != nil {
		return outcome, abortErr
	}

	log.Debug().Int("exit_code", outcome.ExitCode).Dur("duration", outcome.Duration).Msg("process exited")
	return outcome, nil
}

func (r *ProcessRunner) timeoutFor(inv invocation.Invocation) time.Duration {
	switch {
	case inv.Timeout > 0:
		return inv.Timeout
	case r.Timeout > 0:
		return r.Timeout
	default:
		return DefaultTimeout
	}
}

func (r *ProcessRunner) killGrace() time.Duration {
	if r.KillGrace > 0 {
		return r.KillGrace
	}
	return DefaultKillGrace
}

// buildEnv overlays the environment file onto the ambient environment and
// then fills in defaults for keys that are still missing.
func (r *ProcessRunner) buildEnv(inv invocation.Invocation) ([]string, error) {
	base := os.Environ
	if r.BaseEnv != nil {
		base = r.BaseEnv
	}
	vars, _, err := envfile.Load(inv.EnvFile)
	if err != nil {
		return nil, err
	}
	env := envfile.Overlay(base(), vars)
	return envfile.Defaults(env, inv.EnvDefaults), nil
}

// abortError classifies why runCtx fired: the caller's context wins over
// the runner's own deadline.
func (r *ProcessRunner) abortError(parent context.Context, op string, timeout time.Duration) *apperrors.Error {
	if err := parent.Err(); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return apperrors.Wrap(apperrors.Timeout, op, err, "caller deadline exceeded")
		}
		return apperrors.Wrap(apperrors.Cancelled, op, err, "invocation cancelled")
	}
	return apperrors.New(apperrors.Timeout, op, "timed out after %s", timeout)
}

// terminate sends SIGTERM to the process group, escalates to SIGKILL after
// the grace period, and waits for the wait goroutine to report. exited is
// false only if the process outlived SIGKILL plus the grace period.
func (r *ProcessRunner) terminate(cmd *exec.Cmd, done <-chan error, log zerolog.Logger) (exited bool, waitErr error) {
	if err := terminateGroup(cmd); err != nil {
		log.Debug().Err(err).Msg("graceful termination failed")
	}
	grace := r.killGrace()
	select {
	case err := <-done:
		return true, err
	case <-time.After(grace):
	}

	if err := killGroup(cmd); err != nil {
		log.Debug().Err(err).Msg("kill failed")
	}
	select {
	case err := <-done:
		return true, err
	case <-time.After(grace):
		// A descendant outside the group still holds the pipes open.
		log.Error().Int("pid", cmd.Process.Pid).Msg("process did not exit after SIGKILL, returning partial output")
		return false, fmt.Errorf("process %d did not exit", cmd.Process.Pid)
	}
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if stderrors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// lockedBuffer is an io.Writer safe for one writer and concurrent readers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
