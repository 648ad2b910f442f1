//go:build !windows

package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// WriteForkingScript writes a fake dbt that prints "started", backgrounds a
// long sleep, records the sleeper's PID in pidFile and waits for it.
// Returns the executable path.
func WriteForkingScript(t *testing.T, dir, pidFile string) string {
	t.Helper()

	script := fmt.Sprintf("#!/bin/sh\necho started\nsleep 30 &\necho $! > %s\nwait\n", shellQuote(pidFile))
	path := filepath.Join(dir, "dbt")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write forking script: %v", err)
	}
	return path
}

// WaitForPID polls pidFile until it holds a PID or timeout elapses.
// Returns 0 on timeout.
func WaitForPID(pidFile string, timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(pidFile)
		if err == nil {
			if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid > 0 {
				return pid
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return 0
}

// ProcessGone reports whether pid no longer runs. A zombie awaiting reaping
// by init counts as gone.
func ProcessGone(pid int) bool {
	if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
		return true
	}
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	// The state field follows the parenthesised command name.
	stat := string(data)
	i := strings.LastIndexByte(stat, ')')
	if i < 0 || i+2 >= len(stat) {
		return false
	}
	return stat[i+2] == 'Z'
}

// WaitProcessGone polls ProcessGone until it holds or timeout elapses.
func WaitProcessGone(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if ProcessGone(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(20 * time.Millisecond)
	}
}
