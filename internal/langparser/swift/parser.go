// Package swift parses Swift runtime trap output (fatalError,
// precondition, and assertion failures). Swift traps rarely carry a
// usable call stack in captured stderr, so (like PHP) a synthetic
// first frame is built from the header's own file:line when no
// stack-trace frames follow.
package swift

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "swift"

var (
	// Fatal error: Index out of range: file /path/main.swift, line 10
	// Precondition failed: message: file /path/main.swift, line 10
	// Assertion failed: message: file /path/main.swift, line 10
	headerWithLocation = regexp.MustCompile(`(?m)^(Fatal error|Precondition failed|Assertion failed):\s*(.*?):?\s*file\s+(\S+\.swift),\s*line\s+(\d+)\s*$`)
	// Fatal error: Unexpectedly found nil while unwrapping an Optional value
	headerBare = regexp.MustCompile(`^(Fatal error|Precondition failed|Assertion failed):\s*(.*)$`)
	// 12  myapp  0x0000000100003a5c main + 28
	frameLine = regexp.MustCompile(`^\d+\s+(\S+)\s+0x[0-9a-fA-F]+\s+(\S.*)$`)
)

var exceptionTypeByHeader = map[string]string{
	"Fatal error":         "FatalError",
	"Precondition failed": "PreconditionFailure",
	"Assertion failed":    "AssertionFailure",
}

// Parser implements langparser.Parser for Swift trap output.
type Parser struct{}

// New creates a new Swift parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if headerWithLocation.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if headerBare.MatchString(firstNonEmptyLine(stderr)) {
		return model.ConfidenceMedium
	}
	if strings.Contains(stderr, ".swift") {
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

	if m := headerWithLocation.FindStringSubmatch(stderr); m != nil {
		exc = &model.ExceptionInfo{Type: exceptionTypeByHeader[m[1]], Message: m[2]}
		headerFile = m[3]
		headerLine, _ = strconv.Atoi(m[4])
	} else if m := headerBare.FindStringSubmatch(firstNonEmptyLine(stderr)); m != nil {
		exc = &model.ExceptionInfo{Type: exceptionTypeByHeader[m[1]], Message: m[2]}
	}

	for _, line := range lines {
		if m := frameLine.FindStringSubmatch(line); m != nil {
			frames = append(frames, model.StackFrame{
				Function:   langparser.TrimParams(m[2]),
				IsUserCode: !strings.Contains(m[1], "libswift"),
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
			IsUserCode: true,
		})
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
