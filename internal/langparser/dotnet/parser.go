// Package dotnet parses .NET/C# unhandled exception stack traces.
package dotnet

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "csharp"

var (
	// "Unhandled exception. System.DivideByZeroException: Attempted to divide by zero."
	headerLine = regexp.MustCompile(`^(?:Unhandled exception\.\s*)?([A-Za-z_][A-Za-z0-9_.]*Exception):\s*(.*)$`)
	// "   at Namespace.Class.Method(Int32 a, Int32 b) in /path/File.cs:line 12"
	frameWithFile = regexp.MustCompile(`(?m)^\s*at\s+([A-Za-z0-9_.<>\[\]]+)\(([^)]*)\)\s+in\s+(.+):line\s+(\d+)`)
	// "   at Namespace.Class.Method(Int32 a, Int32 b)" (library frame, no file)
	frameNoFile = regexp.MustCompile(`(?m)^\s*at\s+([A-Za-z0-9_.<>\[\]]+)\(([^)]*)\)\s*$`)
)

var libraryFragments = []string{
	"System.", "Microsoft.", "/usr/share/dotnet/",
}

// Parser implements langparser.Parser for .NET stack traces.
type Parser struct{}

// New creates a new .NET parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if frameWithFile.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if headerLine.MatchString(firstNonEmptyLine(stderr)) || frameNoFile.MatchString(stderr) {
		return model.ConfidenceMedium
	}
	if strings.Contains(stderr, "System.") {
		return model.ConfidenceLow
	}
	return model.ConfidenceNone
}

func (p *Parser) Parse(stderr string) model.ParseResult {
	lines := strings.Split(stderr, "\n")

	var frames []model.StackFrame
	var exc *model.ExceptionInfo

	for _, line := range lines {
		if m := frameWithFile.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[4])
			qualified := m[1]
			frames = append(frames, model.StackFrame{
				FilePath:   strings.TrimSpace(m[3]),
				Line:       lineNo,
				Function:   langparser.LastSegment(qualified),
				Class:      classFromQualified(qualified),
				IsUserCode: !langparser.ContainsAny(qualified, libraryFragments),
			})
			continue
		}
		if m := frameNoFile.FindStringSubmatch(line); m != nil {
			qualified := m[1]
			frames = append(frames, model.StackFrame{
				Function:   langparser.LastSegment(qualified),
				Class:      classFromQualified(qualified),
				IsUserCode: !langparser.ContainsAny(qualified, libraryFragments),
			})
			continue
		}
		if exc == nil {
			if m := headerLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				exc = &model.ExceptionInfo{Type: m[1], Message: m[2]}
			}
		}
	}

	if exc == nil && len(frames) == 0 {
		return model.ParseResult{Success: false, RawError: stderr}
	}

	return model.ParseResult{Success: true, Exception: exc, Frames: frames}
}

func classFromQualified(qualified string) string {
	idx := strings.LastIndex(qualified, ".")
	if idx < 0 {
		return ""
	}
	// Drop the method name to get the class, then take its last segment.
	classPath := qualified[:idx]
	return langparser.LastSegment(classPath)
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
