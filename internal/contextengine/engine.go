// Package contextengine orchestrates parser selection and snippet
// enrichment to turn a raw CrashReport into an ErrorContext.
package contextengine

import (
	"path/filepath"
	"strings"

	"github.com/tsugix/tsugix/internal/model"
	"github.com/tsugix/tsugix/internal/registry"
	"github.com/tsugix/tsugix/internal/snippet"
)

// snippetWindow is the number of lines read above and below an error
// line (±3, 7 total).
const snippetWindow = 3

const fallbackMessageLimit = 200

// Engine processes crash reports into enriched error contexts.
type Engine struct {
	registry *registry.Registry
}

// New builds an Engine around the given parser registry.
func New(reg *registry.Registry) *Engine {
	return &Engine{registry: reg}
}

// Process turns a crash report into a context: select a parser, parse,
// enrich frames with source snippets, and pick the primary frame.
// Returns nil only when stderr is empty.
func (e *Engine) Process(report model.CrashReport) *model.ErrorContext {
	if strings.TrimSpace(report.Stderr) == "" {
		return nil
	}

	parser, confidence := e.registry.Best(report.Stderr)
	if parser == nil || confidence == model.ConfidenceNone {
		return fallback(report)
	}

	result := parser.Parse(report.Stderr)
	if !result.Success {
		return fallback(report)
	}

	frames := make([]model.StackFrame, len(result.Frames))
	copy(frames, result.Frames)
	for i := range frames {
		enrich(&frames[i], report.WorkingDir)
	}

	ctx := &model.ErrorContext{
		Language:        parser.Language(),
		Exception:       result.Exception,
		Frames:          frames,
		OriginalCommand: report.Command,
		WorkingDir:      report.WorkingDir,
		Timestamp:       report.Timestamp,
	}
	ctx.PrimaryFrame = primaryFrame(frames)
	return ctx
}

// fallback builds the language-"Unknown" context used when no parser is
// selected or the chosen parser fails to parse. The message is capped
// at fallbackMessageLimit chars and always carries a "..." suffix,
// unlike the length-sensitive truncation used in the prompt payload.
func fallback(report model.CrashReport) *model.ErrorContext {
	trimmed := strings.TrimSpace(report.Stderr)
	if len(trimmed) > fallbackMessageLimit {
		trimmed = trimmed[:fallbackMessageLimit]
	}
	message := trimmed + "..."
	return &model.ErrorContext{
		Language:        "Unknown",
		Exception:       &model.ExceptionInfo{Type: "Error", Message: message},
		OriginalCommand: report.Command,
		WorkingDir:      report.WorkingDir,
		Timestamp:       report.Timestamp,
	}
}

// enrich resolves a frame's path against workingDir and attaches a
// source snippet when the frame carries a file and line.
func enrich(frame *model.StackFrame, workingDir string) {
	if frame.FilePath == "" || frame.Line <= 0 {
		return
	}
	resolved := frame.FilePath
	if !filepath.IsAbs(resolved) && workingDir != "" {
		resolved = filepath.Join(workingDir, resolved)
	}
	frame.Snippet = snippet.ReadContext(resolved, workingDir, frame.Line, snippetWindow)
}

// primaryFrame picks the first user-code frame with a resolvable path;
// if none qualifies, the first frame overall; nil if there are none.
func primaryFrame(frames []model.StackFrame) *model.StackFrame {
	for i := range frames {
		if frames[i].IsUserCode && frames[i].FilePath != "" {
			return &frames[i]
		}
	}
	if len(frames) > 0 {
		return &frames[0]
	}
	return nil
}
