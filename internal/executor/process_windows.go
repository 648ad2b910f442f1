//go:build windows

package executor

import (
	"os/exec"
)

func configureProcAttr(cmd *exec.Cmd) {}

// terminateGroup has no graceful equivalent on Windows; the process is killed.
func terminateGroup(cmd *exec.Cmd) error {
	return killGroup(cmd)
}

func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
