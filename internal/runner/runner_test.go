package runner

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func TestRun_SuccessfulCommand(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), dir, "true", nil)
	if err != nil {
		t.Fatalf("Run() err = %v", err)
	}
	if res.Failed {
		t.Errorf("Failed = true, want false for an exit-0 command")
	}
	if res.Report.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.Report.ExitCode)
	}
}

func TestRun_FailingCommandCapturesExitCodeAndStderr(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), dir, "sh", []string{"-c", "echo boom 1>&2; exit 7"})
	if err != nil {
		t.Fatalf("Run() err = %v", err)
	}
	if !res.Failed {
		t.Errorf("Failed = false, want true for a nonzero exit")
	}
	if res.Report.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", res.Report.ExitCode)
	}
	if res.Report.Stderr != "boom\n" {
		t.Errorf("Stderr = %q, want %q", res.Report.Stderr, "boom\n")
	}
}

func TestRun_CapturesStdout(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), dir, "echo", []string{"hello"})
	if err != nil {
		t.Fatalf("Run() err = %v", err)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello\n")
	}
}

func TestRun_CommandNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), dir, "this-command-does-not-exist-anywhere", nil)
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("Run() err = %v, want exec.ErrNotFound", err)
	}
}

func TestRun_CancellationStopsLongRunningCommand(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var res Result
	go func() {
		res, _ = Run(ctx, dir, "sleep", []string{"30"})
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return within 5s of cancellation")
	}
	if !res.Cancelled {
		t.Errorf("Cancelled = false, want true")
	}
}

func TestRun_SetsWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), dir, "pwd", nil)
	if err != nil {
		t.Fatalf("Run() err = %v", err)
	}
	if got := res.Stdout; got != dir+"\n" {
		t.Errorf("Stdout (pwd) = %q, want %q", got, dir+"\n")
	}
}
