// Package nodejs parses V8/Node.js stack traces.
package nodejs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "javascript"

var (
	// "TypeError: Cannot read properties of undefined (reading 'x')"
	errorHeader = regexp.MustCompile(`^([A-Za-z_$][A-Za-z0-9_$.]*(?:Error))(?::\s*(.*))?$`)
	// "    at functionName (path/to/file.js:10:5)"
	frameWithFn = regexp.MustCompile(`(?m)^\s*at\s+(\S+)\s+\(([^:]+):(\d+):(\d+)\)`)
	// "    at path/to/file.js:10:5" (anonymous frame)
	frameAnon = regexp.MustCompile(`(?m)^\s*at\s+([^\s(]+):(\d+):(\d+)`)
)

var libraryFragments = []string{
	"node_modules/",
	"node:internal/",
	"internal/modules/",
}

// Parser implements langparser.Parser for Node.js/V8 output.
type Parser struct{}

// New creates a new Node.js parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if frameWithFn.MatchString(stderr) || frameAnon.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if errorHeader.MatchString(firstNonEmptyLine(stderr)) {
		return model.ConfidenceMedium
	}
	if strings.Contains(stderr, "node_modules") {
		return model.ConfidenceLow
	}
	return model.ConfidenceNone
}

func (p *Parser) Parse(stderr string) model.ParseResult {
	lines := strings.Split(stderr, "\n")

	var frames []model.StackFrame
	var exc *model.ExceptionInfo

	for _, line := range lines {
		if m := frameWithFn.FindStringSubmatch(line); m != nil {
			frames = append(frames, buildFrame(m[2], m[3], m[4], m[1]))
			continue
		}
		if m := frameAnon.FindStringSubmatch(line); m != nil {
			frames = append(frames, buildFrame(m[1], m[2], m[3], ""))
			continue
		}
		if exc == nil {
			if m := errorHeader.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				exc = &model.ExceptionInfo{Type: m[1], Message: m[2]}
			}
		}
	}

	if exc == nil && len(frames) == 0 {
		return model.ParseResult{Success: false, RawError: stderr}
	}

	return model.ParseResult{Success: true, Exception: exc, Frames: frames}
}

func buildFrame(path, lineStr, colStr, fn string) model.StackFrame {
	lineNo, _ := strconv.Atoi(lineStr)
	colNo, _ := strconv.Atoi(colStr)
	return model.StackFrame{
		FilePath:   path,
		Line:       lineNo,
		Column:     colNo,
		Function:   langparser.LastSegment(langparser.TrimParams(fn)),
		IsUserCode: !langparser.ContainsAny(path, libraryFragments),
	}
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
