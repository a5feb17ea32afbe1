// Package php parses PHP fatal-error output, with or without a trailing
// stack trace. When no "#N file(line): func" frames follow the header,
// a synthetic first frame is built from the header's own file:line.
package php

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "php"

var (
	// PHP Fatal error:  Uncaught DivisionByZeroError: Division by zero in /path/test.php:3
	uncaughtHeader = regexp.MustCompile(`Uncaught\s+([A-Za-z_\\][A-Za-z0-9_\\]*):\s*(.*?)\s+in\s+(\S+):(\d+)`)
	// Fatal error: message in /path/test.php on line 3
	simpleFatal = regexp.MustCompile(`Fatal error:\s*(.*?)\s+in\s+(\S+)\s+on\s+line\s+(\d+)`)
	// #0 /path/test.php(8): divide(10, 0)
	traceFrame = regexp.MustCompile(`(?m)^#(\d+)\s+(\S+)\((\d+)\):\s*(\S+)`)
)

var libraryFragments = []string{
	"/vendor/",
}

// Parser implements langparser.Parser for PHP fatal errors.
type Parser struct{}

// New creates a new PHP parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if uncaughtHeader.MatchString(stderr) || traceFrame.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if simpleFatal.MatchString(stderr) {
		return model.ConfidenceMedium
	}
	if strings.Contains(stderr, ".php") {
		return model.ConfidenceLow
	}
	return model.ConfidenceNone
}

func (p *Parser) Parse(stderr string) model.ParseResult {
	lines := strings.Split(stderr, "\n")

	var exc *model.ExceptionInfo
	var headerFile string
	var headerLine int
	var frames []model.StackFrame

	if m := uncaughtHeader.FindStringSubmatch(stderr); m != nil {
		exc = &model.ExceptionInfo{Type: m[1], Message: m[2]}
		headerFile = m[3]
		headerLine, _ = strconv.Atoi(m[4])
	} else if m := simpleFatal.FindStringSubmatch(stderr); m != nil {
		exc = &model.ExceptionInfo{Type: "Fatal error", Message: m[1]}
		headerFile = m[2]
		headerLine, _ = strconv.Atoi(m[3])
	}

	for _, line := range lines {
		if m := traceFrame.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[3])
			frames = append(frames, model.StackFrame{
				FilePath:   m[2],
				Line:       lineNo,
				Function:   langparser.TrimParams(m[4]),
				IsUserCode: !langparser.ContainsAny(m[2], libraryFragments),
			})
		}
	}

	if exc == nil && len(frames) == 0 {
		return model.ParseResult{Success: false, RawError: stderr}
	}

	if len(frames) == 0 && headerFile != "" {
		frames = append(frames, model.StackFrame{
			FilePath:   headerFile,
			Line:       headerLine,
			IsUserCode: !langparser.ContainsAny(headerFile, libraryFragments),
		})
	}

	return model.ParseResult{Success: true, Exception: exc, Frames: frames}
}
