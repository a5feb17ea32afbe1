// Package cmd assembles the tsugix CLI surface: the cobra root plus
// run/config/history subcommands, wired into a runnable
// "tsugix run -- <command>" entry point.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tsugix/tsugix/internal/cliutil"
)

var brandingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

var log = cliutil.New()

// exitCodeErr lets a subcommand's RunE signal a specific process exit
// code through cobra's plain error-returning contract.
type exitCodeErr struct {
	code int
	err  error
}

func (e *exitCodeErr) Error() string { return e.err.Error() }
func (e *exitCodeErr) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeErr{code: code, err: err}
}

var rootCmd = &cobra.Command{
	Use:   "tsugix",
	Short: "Run a command, and let an LLM fix what breaks it",
	Long: `tsugix wraps a child command. When the command fails, tsugix parses
the error out of its stderr, gathers surrounding source context, asks
an LLM for a minimal patch, and applies it after your confirmation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal-driven cancellation,
// returning a process exit code: 0 success, 127 command not found, 130
// user cancellation, otherwise the wrapped command's own exit code.
func Execute(version string) (int, error) {
	rootCmd.Version = version

	ctx := cliutil.SetupSignalHandler(context.Background())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), brandingStyle.Render("tsugix")+": "+err.Error())
		var ec *exitCodeErr
		if errors.As(err, &ec) {
			return ec.code, err
		}
		return 1, err
	}
	return 0, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
}
