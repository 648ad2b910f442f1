package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// CallRecord records a single fake dbt invocation.
type CallRecord struct {
	Operation string
	Args      []string
}

// MockDBTBuilder provides a fluent API for building a fake dbt executable.
// The executable is a POSIX shell script that answers by operation and
// appends every argument vector to a call log.
type MockDBTBuilder struct {
	mu        sync.Mutex
	responses map[string]mockResponse
	order     []string
	fallback  *mockResponse
	echoEnv   []string
	t         *testing.T
}

type mockResponse struct {
	stdout   string
	stderr   string
	exitCode int
	delay    time.Duration
}

// MockDBT is a built fake dbt executable.
type MockDBT struct {
	// Path is the executable path to configure as dbt_path.
	Path    string
	logPath string
	t       *testing.T
}

// NewMockDBTBuilder creates a new MockDBTBuilder for configuring mock behavior.
func NewMockDBTBuilder(t *testing.T) *MockDBTBuilder {
	t.Helper()

	return &MockDBTBuilder{
		responses: make(map[string]mockResponse),
		t:         t,
	}
}

// WithResponse answers op with stdout and exit code 0.
func (b *MockDBTBuilder) WithResponse(op, stdout string) *MockDBTBuilder {
	return b.set(op, func(r *mockResponse) { r.stdout = stdout })
}

// WithStderr sets the standard error written for op.
func (b *MockDBTBuilder) WithStderr(op, stderr string) *MockDBTBuilder {
	return b.set(op, func(r *mockResponse) { r.stderr = stderr })
}

// WithExitCode sets the exit code returned for op.
func (b *MockDBTBuilder) WithExitCode(op string, code int) *MockDBTBuilder {
	return b.set(op, func(r *mockResponse) { r.exitCode = code })
}

// WithDelay makes op sleep before answering.
func (b *MockDBTBuilder) WithDelay(op string, delay time.Duration) *MockDBTBuilder {
	return b.set(op, func(r *mockResponse) { r.delay = delay })
}

// WithFallback answers unregistered operations.
func (b *MockDBTBuilder) WithFallback(stdout string, exitCode int) *MockDBTBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallback = &mockResponse{stdout: stdout, exitCode: exitCode}
	return b
}

// ThenEchoEnv makes every response also print KEY=value for each key.
func (b *MockDBTBuilder) ThenEchoEnv(keys ...string) *MockDBTBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.echoEnv = append(b.echoEnv, keys...)
	return b
}

func (b *MockDBTBuilder) set(op string, apply func(*mockResponse)) *MockDBTBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.responses[op]
	if !ok {
		b.order = append(b.order, op)
	}
	apply(&r)
	b.responses[op] = r
	return b
}

// Build writes the fake executable into a temp directory.
// Tests are skipped on Windows, where the script cannot run.
func (b *MockDBTBuilder) Build() *MockDBT {
	b.t.Helper()

	if runtime.GOOS == "windows" {
		b.t.Skip("fake dbt scripts require a POSIX shell")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dir := b.t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	path := filepath.Join(dir, "dbt")

	if err := os.WriteFile(path, []byte(b.script(logPath)), 0755); err != nil {
		b.t.Fatalf("failed to write fake dbt: %v", err)
	}

	return &MockDBT{Path: path, logPath: logPath, t: b.t}
}

func (b *MockDBTBuilder) script(logPath string) string {
	var s strings.Builder
	s.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&s, "printf '%%s\\n' \"$*\" >> %s\n", shellQuote(logPath))
	s.WriteString("case \"$1\" in\n")
	for _, op := range b.order {
		fmt.Fprintf(&s, "  %s)\n", shellQuote(op))
		b.writeResponse(&s, b.responses[op])
	}
	s.WriteString("  *)\n")
	if b.fallback != nil {
		b.writeResponse(&s, *b.fallback)
	} else {
		s.WriteString("    echo \"unknown command: $1\" >&2\n    exit 2\n    ;;\n")
	}
	s.WriteString("esac\n")
	return s.String()
}

func (b *MockDBTBuilder) writeResponse(s *strings.Builder, r mockResponse) {
	if r.delay > 0 {
		fmt.Fprintf(s, "    sleep %.3f\n", r.delay.Seconds())
	}
	for _, key := range b.echoEnv {
		fmt.Fprintf(s, "    printf '%%s=%%s\\n' %s \"$%s\"\n", shellQuote(key), key)
	}
	if r.stdout != "" {
		fmt.Fprintf(s, "    printf '%%s' %s\n", shellQuote(r.stdout))
	}
	if r.stderr != "" {
		fmt.Fprintf(s, "    printf '%%s' %s >&2\n", shellQuote(r.stderr))
	}
	fmt.Fprintf(s, "    exit %d\n    ;;\n", r.exitCode)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// GetCalls returns all recorded calls in invocation order.
func (m *MockDBT) GetCalls() []CallRecord {
	m.t.Helper()

	data, err := os.ReadFile(m.logPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		m.t.Fatalf("failed to read call log: %v", err)
	}

	var calls []CallRecord
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		calls = append(calls, CallRecord{Operation: args[0], Args: args})
	}
	return calls
}

// GetCallCount returns the number of calls made.
func (m *MockDBT) GetCallCount() int {
	return len(m.GetCalls())
}

// AssertCalled verifies that op was called with an argument line containing want.
func (m *MockDBT) AssertCalled(t *testing.T, op, want string) {
	t.Helper()

	calls := m.GetCalls()
	for _, call := range calls {
		if call.Operation == op && strings.Contains(strings.Join(call.Args, " "), want) {
			return
		}
	}
	t.Errorf("expected %s to be called with %q, but was not found in %d calls", op, want, len(calls))
}

// AssertNotCalled verifies that the executable was never started.
func (m *MockDBT) AssertNotCalled(t *testing.T) {
	t.Helper()

	if n := m.GetCallCount(); n > 0 {
		t.Errorf("expected fake dbt to not be called, but was called %d times", n)
	}
}
