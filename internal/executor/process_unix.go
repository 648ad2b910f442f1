//go:build !windows

package executor

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcAttr starts the child in its own process group so the whole
// tree can be signalled on timeout or cancellation.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateGroup sends SIGTERM to the child's process group.
func terminateGroup(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGTERM)
}

// killGroup sends SIGKILL to the child's process group.
func killGroup(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGKILL)
}

func signalGroup(cmd *exec.Cmd, sig unix.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	// Negative PID addresses the whole group.
	if err := unix.Kill(-pid, sig); err != nil {
		if err2 := unix.Kill(pid, sig); err2 != nil {
			return fmt.Errorf("signal %v to group -%d: %v, to process %d: %w", sig, pid, err, pid, err2)
		}
	}
	return nil
}
