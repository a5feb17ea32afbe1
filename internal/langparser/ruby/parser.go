// Package ruby parses Ruby (MRI) backtraces.
package ruby

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "ruby"

var (
	// test.rb:5:in `divide': divided by zero (ZeroDivisionError)
	headFrame = regexp.MustCompile("(?m)^(\\S+\\.rb):(\\d+):in [`']([^'\"]+)':\\s*(.*?)\\s*\\(([A-Za-z_][A-Za-z0-9_:]*)\\)\\s*$")
	// \tfrom test.rb:9:in `<main>'
	fromFrame = regexp.MustCompile("(?m)^\\s*from\\s+(\\S+\\.rb):(\\d+):in [`']([^'\"]+)'")
)

var libraryFragments = []string{
	"/gems/", "/vendor/bundle/", "/rubygems/",
}

// Parser implements langparser.Parser for Ruby backtraces.
type Parser struct{}

// New creates a new Ruby parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if headFrame.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if fromFrame.MatchString(stderr) {
		return model.ConfidenceMedium
	}
	if strings.Contains(stderr, ".rb:") {
		return model.ConfidenceLow
	}
	return model.ConfidenceNone
}

func (p *Parser) Parse(stderr string) model.ParseResult {
	lines := strings.Split(stderr, "\n")

	var frames []model.StackFrame
	var exc *model.ExceptionInfo

	for _, line := range lines {
		if m := headFrame.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			frames = append(frames, model.StackFrame{
				FilePath:   m[1],
				Line:       lineNo,
				Function:   m[3],
				IsUserCode: !langparser.ContainsAny(m[1], libraryFragments),
			})
			exc = &model.ExceptionInfo{Type: m[5], Message: m[4]}
			continue
		}
		if m := fromFrame.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			frames = append(frames, model.StackFrame{
				FilePath:   m[1],
				Line:       lineNo,
				Function:   m[3],
				IsUserCode: !langparser.ContainsAny(m[1], libraryFragments),
			})
		}
	}

	if exc == nil && len(frames) == 0 {
		return model.ParseResult{Success: false, RawError: stderr}
	}

	return model.ParseResult{Success: true, Exception: exc, Frames: frames}
}
