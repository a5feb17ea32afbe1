// Package runner wraps an arbitrary child command: it captures
// stderr/stdout, reports the exit code, and terminates the child's
// whole process group when the run is cancelled.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/tsugix/tsugix/internal/model"
)

// Result is the outcome of running a child command to completion (or
// cancellation).
type Result struct {
	Report    model.CrashReport
	Stdout    string
	Cancelled bool
	Failed    bool // true if the process exited non-zero or couldn't start
}

// Run executes name/args in workingDir, streaming nothing and capturing
// stdout/stderr in full. If ctx is cancelled while the child is running,
// the child's entire process group is signalled and Result.Cancelled is
// set.
func Run(ctx context.Context, workingDir, name string, args []string) (Result, error) {
	cmd := exec.Command(name, args...) // #nosec G204 -- the user-supplied command is the thing being wrapped
	cmd.Dir = workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	setupProcessGroup(cmd)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{Failed: true}, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var runErr error
	var cancelled bool
	select {
	case <-ctx.Done():
		cancelled = true
		terminate(cmd)
		<-done
	case err := <-done:
		runErr = err
	}

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	commandLine := name
	for _, a := range args {
		commandLine += " " + a
	}

	report := model.CrashReport{
		Stderr:     stderr.String(),
		ExitCode:   exitCode,
		Command:    commandLine,
		WorkingDir: workingDir,
		Timestamp:  started,
	}

	return Result{
		Report:    report,
		Stdout:    stdout.String(),
		Cancelled: cancelled,
		Failed:    exitCode != 0,
	}, nil
}
