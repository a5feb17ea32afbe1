//go:build windows

package runner

import "os/exec"

// setupProcessGroup is a no-op on Windows; process groups work
// differently there and a direct Kill below is the best we can do
// without additional job-object plumbing.
func setupProcessGroup(cmd *exec.Cmd) {}

func terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
