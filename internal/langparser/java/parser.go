// Package java parses JVM stack traces.
package java

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "java"

var (
	// "Exception in thread "main" java.lang.ArithmeticException: / by zero"
	headerLine = regexp.MustCompile(`^(?:Exception in thread "[^"]*"\s+)?([A-Za-z_][A-Za-z0-9_.$]*(?:Exception|Error))(?::\s*(.*))?$`)
	// "	at pkg.Class.method(File.java:10)"
	frameLine = regexp.MustCompile(`(?m)^\s*at\s+([A-Za-z0-9_.$]+)\.([A-Za-z0-9_$<>]+)\(([^:)]+):(\d+)\)`)
	// "	at pkg.Class.method(Native Method)" or "(Unknown Source)"
	frameNoLine = regexp.MustCompile(`(?m)^\s*at\s+([A-Za-z0-9_.$]+)\.([A-Za-z0-9_$<>]+)\(([^)]*)\)`)
	causedBy    = regexp.MustCompile(`^Caused by:\s*([A-Za-z_][A-Za-z0-9_.$]*(?:Exception|Error))(?::\s*(.*))?$`)
)

var libraryFragments = []string{
	"java.", "javax.", "sun.", "jdk.internal.",
}

// Parser implements langparser.Parser for Java stack traces.
type Parser struct{}

// New creates a new Java parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if frameLine.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if headerLine.MatchString(firstNonEmptyLine(stderr)) || frameNoLine.MatchString(stderr) {
		return model.ConfidenceMedium
	}
	if strings.Contains(stderr, "java.lang.") {
		return model.ConfidenceLow
	}
	return model.ConfidenceNone
}

func (p *Parser) Parse(stderr string) model.ParseResult {
	lines := strings.Split(stderr, "\n")

	var frames []model.StackFrame
	var exc *model.ExceptionInfo
	var innerType, innerMsg string

	for _, line := range lines {
		if m := frameLine.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[4])
			frames = append(frames, model.StackFrame{
				FilePath:   m[3],
				Line:       lineNo,
				Function:   m[2],
				Class:      langparser.LastSegment(m[1]),
				IsUserCode: !langparser.ContainsAny(m[1], libraryFragments),
			})
			continue
		}
		if m := frameNoLine.FindStringSubmatch(line); m != nil {
			frames = append(frames, model.StackFrame{
				Function:   m[2],
				Class:      langparser.LastSegment(m[1]),
				IsUserCode: !langparser.ContainsAny(m[1], libraryFragments),
			})
			continue
		}
		if m := causedBy.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			innerType, innerMsg = m[1], m[2]
			continue
		}
		if exc == nil {
			if m := headerLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				exc = &model.ExceptionInfo{Type: m[1], Message: m[2]}
			}
		}
	}

	if exc != nil && innerType != "" {
		exc.Inner = innerType + ": " + innerMsg
	}

	if exc == nil && len(frames) == 0 {
		return model.ParseResult{Success: false, RawError: stderr}
	}

	return model.ParseResult{Success: true, Exception: exc, Frames: frames}
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
