// Package langparser defines the shared contract for the nine
// language-specific error parsers: each is a sibling implementing the
// same small capability set over a captured stderr blob, reporting a
// tiered confidence before committing to a full parse.
package langparser

import "github.com/tsugix/tsugix/internal/model"

// Parser is implemented by each of the nine language parsers.
type Parser interface {
	// Language returns the parser's canonical name, e.g. "python", "go".
	Language() string

	// CanParse performs a cheap scan of the raw stderr text and returns a
	// confidence tier. Adding more anchor text to the input must never
	// lower the reported tier.
	CanParse(stderr string) model.Confidence

	// Parse performs the best-effort structured extraction. It must never
	// panic; internal errors degrade to ParseResult{Success:false}.
	Parse(stderr string) model.ParseResult
}

// TrimParams strips a trailing parameter list from a function name, e.g.
// "divide(a, b)" -> "divide".
func TrimParams(fn string) string {
	if idx := indexByte(fn, '('); idx >= 0 {
		return fn[:idx]
	}
	return fn
}

// LastSegment returns the last dot-separated segment of a dotted name,
// e.g. "pkg.Class.method" -> "method".
func LastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// ContainsAny reports whether path contains any of the well-known
// library/runtime path fragments, used by every parser's frame
// classification.
func ContainsAny(path string, fragments []string) bool {
	for _, f := range fragments {
		if containsSubstring(path, f) {
			return true
		}
	}
	return false
}

func containsSubstring(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	if len(substr) > len(s) {
		return false
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// Truncate truncates s to at most n bytes, appending "..." when it does.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
