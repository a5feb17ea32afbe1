// Leveled status logging with a small lipgloss palette, enabled only
// when stderr is a real terminal.
package cliutil

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	infoColor  = "42"  // green
	warnColor  = "214" // amber
	errorColor = "196" // red
	dimColor   = "241" // gray
)

// Logger writes leveled, styled status lines to stderr. Styling is
// skipped when stderr is not a terminal.
type Logger struct {
	styled bool
	info   lipgloss.Style
	warn   lipgloss.Style
	errS   lipgloss.Style
	dim    lipgloss.Style
}

// New builds a Logger, auto-detecting whether stderr supports styling.
func New() *Logger {
	styled := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return &Logger{
		styled: styled,
		info:   lipgloss.NewStyle().Foreground(lipgloss.Color(infoColor)),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color(warnColor)),
		errS:   lipgloss.NewStyle().Foreground(lipgloss.Color(errorColor)),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(dimColor)),
	}
}

func (l *Logger) render(style lipgloss.Style, s string) string {
	if !l.styled {
		return s
	}
	return style.Render(s)
}

// Info prints a routine status line.
func (l *Logger) Info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", l.render(l.info, "info"), fmt.Sprintf(format, args...))
}

// Warn prints a recoverable-failure line (AiError, Failed outcomes).
func (l *Logger) Warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", l.render(l.warn, "warn"), fmt.Sprintf(format, args...))
}

// Error prints an unrecoverable-failure line.
func (l *Logger) Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", l.render(l.errS, "error"), fmt.Sprintf(format, args...))
}

// Dim prints a low-emphasis contextual line (e.g. "└─ backup saved to ...").
func (l *Logger) Dim(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s\n", l.render(l.dim, fmt.Sprintf(format, args...)))
}
