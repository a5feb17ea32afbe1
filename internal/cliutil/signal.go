// Package cliutil holds small helpers shared by the tsugix CLI surface:
// signal-driven cancellation and lipgloss-styled status printing.
package cliutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context derived from parent that is
// cancelled on SIGINT/SIGTERM, so a running child process and in-flight
// LLM calls unwind cooperatively on Ctrl+C.
func SetupSignalHandler(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}

// PrintCancellationMessage announces that commandName was interrupted.
func PrintCancellationMessage(commandName string) {
	const colorGreen = "\033[32m"
	const colorReset = "\033[0m"
	_, _ = fmt.Fprintf(os.Stderr, "\n%s%s cancelled%s\n", colorGreen, commandName, colorReset)
}
