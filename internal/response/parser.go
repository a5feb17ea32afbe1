// Package response extracts and validates the LLM's JSON reply into a
// FixSuggestion. A fenced code block is preferred; failing that, a scan
// from the first '{' takes the shortest brace-balanced prefix that
// respects string and escape state.
package response

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/tsugix/tsugix/internal/model"
)

const maxExplanationChars = 200

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)```")

// rawEdit accepts both the new schema and the legacy one so a single
// permissive struct can unmarshal either shape.
type rawEdit struct {
	FilePath         string   `json:"file_path"`
	StartLine        int      `json:"start_line"`
	EndLine          int      `json:"end_line"`
	OriginalLines    []string `json:"original_lines"`
	Replacement      *string  `json:"replacement"`
	ReplacementLines []string `json:"replacement_lines"`
}

type rawSuggestion struct {
	Language    string    `json:"language"`
	Edits       []rawEdit `json:"edits"`
	Explanation string    `json:"explanation"`
	Confidence  int       `json:"confidence"`

	// Legacy top-level schema (single implicit edit).
	FilePath         string   `json:"file_path"`
	OriginalLines    []string `json:"original_lines"`
	ReplacementLines []string `json:"replacement_lines"`
	StartLine        int      `json:"start_line"`
	EndLine          int      `json:"end_line"`
}

// Parse extracts, deserializes, normalizes, and validates the LLM's
// reply. Any failure (missing JSON, bad shape, or a validation
// violation) returns nil rather than an error: an unusable response is
// not an exceptional condition for the caller.
func Parse(text string) *model.FixSuggestion {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	candidate := extractJSON(text)
	if candidate == "" {
		return nil
	}

	var raw rawSuggestion
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil
	}

	suggestion := normalize(raw)
	if !validate(suggestion) {
		return nil
	}
	return suggestion
}

// extractJSON isolates a JSON object from text: first a fenced ```json
// block, then a brace-balanced scan from the first '{' that respects
// string and escape state.
func extractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return balancedObject(text)
}

// balancedObject returns the shortest '{'...'}' substring starting at
// the first '{' in s whose braces balance, tracking whether the scan is
// inside a JSON string and honoring backslash escapes.
func balancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// normalize converts either accepted shape into the canonical
// FixSuggestion form. The legacy schema's single implicit edit is
// synthesized into edits[0] when edits[] is absent.
func normalize(raw rawSuggestion) *model.FixSuggestion {
	edits := make([]model.FixEdit, 0, len(raw.Edits)+1)
	for _, e := range raw.Edits {
		edits = append(edits, toFixEdit(e))
	}

	if len(edits) == 0 && raw.FilePath != "" {
		edits = append(edits, toFixEdit(rawEdit{
			FilePath:         raw.FilePath,
			StartLine:        raw.StartLine,
			EndLine:          raw.EndLine,
			OriginalLines:    raw.OriginalLines,
			ReplacementLines: raw.ReplacementLines,
		}))
	}

	return &model.FixSuggestion{
		Language:    raw.Language,
		Edits:       edits,
		Explanation: raw.Explanation,
		Confidence:  raw.Confidence,
	}
}

// toFixEdit resolves an edit's replacement text and, for the legacy
// schema, infers a missing end_line from the original line count.
func toFixEdit(e rawEdit) model.FixEdit {
	replacement := ""
	if e.Replacement != nil {
		replacement = *e.Replacement
	} else if e.ReplacementLines != nil {
		replacement = strings.Join(e.ReplacementLines, "\n")
	}

	endLine := e.EndLine
	if endLine == 0 && e.StartLine > 0 && len(e.OriginalLines) > 0 {
		endLine = e.StartLine + len(e.OriginalLines) - 1
	}

	return model.FixEdit{
		FilePath:      e.FilePath,
		StartLine:     e.StartLine,
		EndLine:       endLine,
		OriginalLines: e.OriginalLines,
		Replacement:   replacement,
	}
}

// validate checks every edit's fields and the no-overlap rule within
// each file.
func validate(s *model.FixSuggestion) bool {
	if s == nil || len(s.Edits) == 0 {
		return false
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return false
	}
	if len(s.Explanation) > maxExplanationChars {
		return false
	}

	byFile := make(map[string][]model.FixEdit)
	for _, e := range s.Edits {
		if e.FilePath == "" || e.StartLine < 1 || e.EndLine < e.StartLine || len(e.OriginalLines) == 0 {
			return false
		}
		byFile[e.FilePath] = append(byFile[e.FilePath], e)
	}

	for _, edits := range byFile {
		sort.Slice(edits, func(i, j int) bool { return edits[i].StartLine < edits[j].StartLine })
		for i := 0; i+1 < len(edits); i++ {
			if edits[i].EndLine >= edits[i+1].StartLine {
				return false
			}
		}
	}

	return true
}
