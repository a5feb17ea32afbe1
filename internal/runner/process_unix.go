//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup puts the child in its own process group so
// terminate can signal the whole tree, not just the direct child.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate signals SIGTERM to the child's process group.
func terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}
