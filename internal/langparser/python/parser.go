// Package python parses CPython tracebacks out of a captured stderr
// blob, including chained-exception output.
package python

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "python"

var (
	tracebackHeader = regexp.MustCompile(`(?m)^Traceback \(most recent call last\):`)
	frameLine       = regexp.MustCompile(`(?m)^\s*File "([^"]+)", line (\d+), in (\S+)`)
	exceptionLine   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*(?:Error|Exception|Warning)):\s*(.*)$`)
	bareException   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*):\s*(.*)$`)
	chainedCause    = regexp.MustCompile(`^The above exception was the direct cause`)
)

var libraryFragments = []string{
	"site-packages/",
	"/lib/python",
	"dist-packages/",
	"<frozen ",
}

// Parser implements langparser.Parser for Python tracebacks.
type Parser struct{}

// New creates a new Python parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if tracebackHeader.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if frameLine.MatchString(stderr) || strings.Contains(stderr, ".py\"") {
		return model.ConfidenceMedium
	}
	if strings.Contains(stderr, "Error") || strings.Contains(stderr, "Exception") {
		return model.ConfidenceLow
	}
	return model.ConfidenceNone
}

func (p *Parser) Parse(stderr string) model.ParseResult {
	lines := strings.Split(stderr, "\n")

	var frames []model.StackFrame
	var exceptionLineText string
	sawTraceback := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if tracebackHeader.MatchString(line) {
			sawTraceback = true
			continue
		}
		if m := frameLine.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			frame := model.StackFrame{
				FilePath:   m[1],
				Line:       lineNo,
				Function:   langparser.TrimParams(m[3]),
				IsUserCode: !langparser.ContainsAny(m[1], libraryFragments),
			}
			frames = append(frames, frame)
			continue
		}
		if chainedCause.MatchString(line) {
			// A chained exception restarts frame accumulation; only the
			// last reported exception is kept.
			frames = nil
			continue
		}
		if !sawTraceback {
			continue
		}
		// Candidate exception line: last non-indented, non-empty line of
		// the traceback that isn't a "File ..." frame line.
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue
		}
		if exceptionLine.MatchString(trimmed) || bareException.MatchString(trimmed) {
			exceptionLineText = trimmed
		}
	}

	if exceptionLineText == "" && len(frames) == 0 {
		return model.ParseResult{Success: false, RawError: stderr}
	}

	var exc *model.ExceptionInfo
	if exceptionLineText != "" {
		if m := exceptionLine.FindStringSubmatch(exceptionLineText); m != nil {
			exc = &model.ExceptionInfo{Type: m[1], Message: m[2]}
		} else if m := bareException.FindStringSubmatch(exceptionLineText); m != nil {
			exc = &model.ExceptionInfo{Type: m[1], Message: m[2]}
		}
	}

	return model.ParseResult{
		Success:   true,
		Exception: exc,
		Frames:    frames,
	}
}
