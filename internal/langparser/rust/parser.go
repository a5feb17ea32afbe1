// Package rust parses Rust panic traces, supporting both the legacy
// single-line panic header and the newer two-line form where the
// message follows on the next line.
package rust

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsugix/tsugix/internal/langparser"
	"github.com/tsugix/tsugix/internal/model"
)

const languageName = "rust"

var (
	// Legacy: thread 'main' panicked at 'message', src/main.rs:5:5
	panicLegacy = regexp.MustCompile(`(?m)^thread '([^']*)' panicked at '(.*)',\s*(\S+):(\d+):(\d+)`)
	// New: thread 'main' panicked at src/main.rs:5:5:
	panicNewHeader = regexp.MustCompile(`(?m)^thread '([^']*)' panicked at (\S+):(\d+):(\d+):\s*$`)
	stackFrame     = regexp.MustCompile(`^\s*\d+:\s+(\S.*)$`)
	atFileLine     = regexp.MustCompile(`^\s*at\s+(\S+):(\d+)`)
)

var libraryFragments = []string{
	"/rustc/", "/.cargo/", "/cargo/registry/",
}

// Parser implements langparser.Parser for Rust panic output.
type Parser struct{}

// New creates a new Rust parser instance.
func New() *Parser { return &Parser{} }

func (p *Parser) Language() string { return languageName }

func (p *Parser) CanParse(stderr string) model.Confidence {
	if panicLegacy.MatchString(stderr) || panicNewHeader.MatchString(stderr) {
		return model.ConfidenceHigh
	}
	if strings.Contains(stderr, "panicked at") {
		return model.ConfidenceMedium
	}
	return model.ConfidenceNone
}

func (p *Parser) Parse(stderr string) model.ParseResult {
	lines := strings.Split(stderr, "\n")

	var message, file string
	var lineNo int
	var frames []model.StackFrame

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := panicLegacy.FindStringSubmatch(line); m != nil {
			message = m[2]
			file = m[3]
			lineNo, _ = strconv.Atoi(m[4])
			frames = append(frames, model.StackFrame{
				FilePath:   file,
				Line:       lineNo,
				IsUserCode: !langparser.ContainsAny(file, libraryFragments),
			})
			continue
		}
		if m := panicNewHeader.FindStringSubmatch(line); m != nil {
			file = m[2]
			lineNo, _ = strconv.Atoi(m[3])
			if i+1 < len(lines) {
				message = strings.TrimSpace(lines[i+1])
				i++
			}
			frames = append(frames, model.StackFrame{
				FilePath:   file,
				Line:       lineNo,
				IsUserCode: !langparser.ContainsAny(file, libraryFragments),
			})
			continue
		}
		if m := stackFrame.FindStringSubmatch(line); m != nil {
			frames = append(frames, model.StackFrame{
				Function:   langparser.LastSegment(langparser.TrimParams(m[1])),
				IsUserCode: true,
			})
			continue
		}
		if m := atFileLine.FindStringSubmatch(line); m != nil {
			ln, _ := strconv.Atoi(m[2])
			if len(frames) > 0 && frames[len(frames)-1].FilePath == "" {
				frames[len(frames)-1].FilePath = m[1]
				frames[len(frames)-1].Line = ln
				frames[len(frames)-1].IsUserCode = !langparser.ContainsAny(m[1], libraryFragments)
			}
		}
	}

	if message == "" && len(frames) == 0 {
		return model.ParseResult{Success: false, RawError: stderr}
	}

	return model.ParseResult{
		Success:   true,
		Exception: &model.ExceptionInfo{Type: "panic", Message: message},
		Frames:    frames,
	}
}
