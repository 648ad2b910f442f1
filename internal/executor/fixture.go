package executor

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

// Fixture is a canned process outcome.
type Fixture struct {
	// Operation selects which invocations this fixture answers.
	Operation string `yaml:"operation"`

	// Match lists tokens that must all appear in the argument vector.
	Match []string `yaml:"match,omitempty"`

	ExitCode int    `yaml:"exit_code"`
	Stdout   string `yaml:"stdout"`
	Stderr   string `yaml:"stderr"`

	// Delay simulates a slow process; timeouts and cancellation apply.
	Delay time.Duration `yaml:"delay,omitempty"`

	// LaunchError simulates an executable that cannot be started.
	LaunchError string `yaml:"launch_error,omitempty"`
}

type fixtureFile struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// Call records one invocation answered by a FixtureRunner.
type Call struct {
	Operation string
	Args      []string
	WorkDir   string
	Timestamp time.Time
}

// FixtureRunner answers invocations from canned fixtures instead of starting
// processes. It is selected at construction time (mock mode) and is safe for
// concurrent use.
type FixtureRunner struct {
	// Timeout is the ceiling used when the invocation does not set one.
	Timeout time.Duration

	mu       sync.Mutex
	fixtures []Fixture
	calls    []Call
}

// NewFixtureRunner creates a runner answering from fixtures, in order.
func NewFixtureRunner(fixtures ...Fixture) *FixtureRunner {
	return &FixtureRunner{fixtures: fixtures}
}

// LoadFixtures reads a YAML fixture file of the form:
//
//	fixtures:
//	  - operation: ls
//	    match: ["--output", "name"]
//	    stdout: |
//	      customers
func LoadFixtures(path string) (*FixtureRunner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixtures %s: %w", path, err)
	}
	for i, fx := range f.Fixtures {
		if fx.Operation == "" {
			return nil, fmt.Errorf("fixture %d in %s: operation is required", i, path)
		}
	}
	return NewFixtureRunner(f.Fixtures...), nil
}

// With appends a fixture and returns the runner for chaining.
func (r *FixtureRunner) With(f Fixture) *FixtureRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixtures = append(r.fixtures, f)
	return r
}

// Calls returns a copy of the recorded calls.
func (r *FixtureRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Run answers inv from the first matching fixture. An invocation with no
// matching fixture exits with status 1 and a diagnostic on stderr.
func (r *FixtureRunner) Run(ctx context.Context, inv invocation.Invocation) (*Outcome, error) {
	op := string(inv.Operation)
	fx, ok := r.record(inv)

	log := logging.For("fixture")
	if !ok {
		log.Warn().Str("command", inv.CommandLine()).Msg("no fixture matched")
		return &Outcome{
			ExitCode: 1,
			Stderr:   fmt.Sprintf("no fixture registered for: %s\n", strings.Join(inv.Args, " ")),
		}, nil
	}
	if fx.LaunchError != "" {
		return nil, apperrors.Wrap(apperrors.LaunchFailure, op, fmt.Errorf("%s", fx.LaunchError),
			fmt.Sprintf("failed to start %s", inv.Executable))
	}

	start := time.Now()
	if fx.Delay > 0 {
		timeout := inv.Timeout
		if timeout <= 0 {
			timeout = r.Timeout
		}
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		timer := time.NewTimer(fx.Delay)
		defer timer.Stop()
		deadline := time.NewTimer(timeout)
		defer deadline.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			kind := apperrors.Cancelled
			if ctx.Err() == context.DeadlineExceeded {
				kind = apperrors.Timeout
			}
			return &Outcome{ExitCode: -1, Duration: time.Since(start)},
				apperrors.Wrap(kind, op, ctx.Err(), "invocation aborted")
		case <-deadline.C:
			return &Outcome{ExitCode: -1, Duration: time.Since(start)},
				apperrors.New(apperrors.Timeout, op, "timed out after %s", timeout)
		}
	}

	log.Debug().Str("command", inv.CommandLine()).Int("exit_code", fx.ExitCode).Msg("answered from fixture")
	return &Outcome{
		ExitCode: fx.ExitCode,
		Stdout:   fx.Stdout,
		Stderr:   fx.Stderr,
		Duration: time.Since(start),
	}, nil
}

func (r *FixtureRunner) record(inv invocation.Invocation) (Fixture, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{
		Operation: string(inv.Operation),
		Args:      slices.Clone(inv.Args),
		WorkDir:   inv.WorkDir,
		Timestamp: time.Now(),
	})
	for _, fx := range r.fixtures {
		if fx.Operation != string(inv.Operation) {
			continue
		}
		if containsAll(inv.Args, fx.Match) {
			return fx, true
		}
	}
	return Fixture{}, false
}

func containsAll(args, tokens []string) bool {
	for _, t := range tokens {
		if !slices.Contains(args, t) {
			return false
		}
	}
	return true
}
