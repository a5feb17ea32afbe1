// Package golang parses Go panic traces: the "panic:" header, the
// "goroutine N [state]:" marker, and the alternating function/file
// lines that follow.
package golang

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "go"

var (
	panicHeader = regexp.MustCompile(`(?m)^panic:\s*(.*)$`)
	goroutine   = regexp.MustCompile(`(?m)^goroutine\s+\d+\s+\[[^\]]+\]:`)
	// "main.divide(...)" style function line, immediately followed by a file line.
	funcLine = regexp.MustCompile(`^([A-Za-z0-9_./*()\[\]{}]+)\(.*\)$`)
	// "\t/path/to/file.go:12 +0x1d"
	fileLine = regexp.MustCompile(`(?m)^\s*(\S+\.go):(\d+)(?:\s+\+0x[0-9a-f]+)?`)
)

var libraryFragments = []string{
	"/go/src/", "/go/pkg/mod/", "/usr/local/go/src/", "runtime.",
}

// Parser implements langparser.Parser for Go panic output.
type Parser struct{}

// New creates a new Go parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if panicHeader.MatchString(stderr) || goroutine.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if fileLine.MatchString(stderr) && strings.Contains(stderr, ".go:") {
		return model.ConfidenceMedium
	}
	return model.ConfidenceNone
}

func (p *Parser) Parse(stderr string) model.ParseResult {
	lines := strings.Split(stderr, "\n")

	var message string
	var frames []model.StackFrame
	var pendingFunc string

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := panicHeader.FindStringSubmatch(line); m != nil {
			message = m[1]
			continue
		}
		if goroutine.MatchString(line) {
			continue
		}
		if m := fileLine.FindStringSubmatch(line); m != nil {
			lineNo, _ := strconv.Atoi(m[2])
			frames = append(frames, model.StackFrame{
				FilePath:   m[1],
				Line:       lineNo,
				Function:   langparser.LastSegment(pendingFunc),
				IsUserCode: !langparser.ContainsAny(m[1], libraryFragments),
			})
			pendingFunc = ""
			continue
		}
		if m := funcLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			// The regex already splits off the argument list, so m[1] is the
			// qualified name; a pointer-receiver's "main.(*T).method" keeps
			// its parentheses, which TrimParams would mangle.
			pendingFunc = m[1]
		}
	}

	if message == "" && len(frames) == 0 {
		return model.ParseResult{Success: false, RawError: stderr}
	}

	excType := "panic"
	return model.ParseResult{
		Success:   true,
		Exception: &model.ExceptionInfo{Type: excType, Message: message},
		Frames:    frames,
	}
}
