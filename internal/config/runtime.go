package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync/atomic"
)

// Runtime holds the loaded configuration and the executable override set by
// reconfiguration. Readers take a Snapshot per invocation; a concurrent
// reconfiguration may or may not be seen by an in-flight call. Last write
// wins.
type Runtime struct {
	base       atomic.Pointer[Configuration]
	executable atomic.Pointer[string]
}

// NewRuntime wraps cfg. cfg must not be modified afterwards.
func NewRuntime(cfg *Configuration) *Runtime {
	r := &Runtime{}
	r.base.Store(cfg)
	return r
}

// Snapshot returns a copy of the configuration with any executable override
// applied.
func (r *Runtime) Snapshot() Configuration {
	cfg := *r.base.Load()
	cfg.StrictOperations = slices.Clone(cfg.StrictOperations)
	if exe := r.executable.Load(); exe != nil {
		cfg.DBTPath = *exe
	}
	return cfg
}

// Executable returns the effective dbt executable path.
func (r *Runtime) Executable() string {
	if exe := r.executable.Load(); exe != nil {
		return *exe
	}
	return r.base.Load().DBTPath
}

// SetExecutable overrides the dbt executable path for subsequent invocations.
func (r *Runtime) SetExecutable(path string) {
	r.executable.Store(&path)
}

// Replace swaps in a freshly loaded configuration. The executable override
// is cleared so the new file's dbt_path takes effect.
func (r *Runtime) Replace(cfg *Configuration) {
	r.base.Store(cfg)
	r.executable.Store(nil)
}

// ValidateExecutablePath checks that path names an existing regular file.
// A bare command name is resolved through PATH. Returns the resolved path.
func ValidateExecutablePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("executable path is empty")
	}
	resolved := path
	if filepath.Base(path) == path {
		if lp, err := exec.LookPath(path); err == nil {
			resolved = lp
		}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", path)
	}
	return resolved, nil
}
