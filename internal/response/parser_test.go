package response

import "testing"

func TestParse_FencedJSONBlock(t *testing.T) {
	text := "Here is the fix:\n```json\n{\"language\":\"go\",\"edits\":[{\"file_path\":\"a.go\",\"start_line\":1,\"end_line\":1,\"original_lines\":[\"x\"],\"replacement\":\"y\"}],\"explanation\":\"fix\",\"confidence\":90}\n```\n"

	s := Parse(text)
	if s == nil {
		t.Fatal("Parse() = nil, want a suggestion")
	}
	if s.Language != "go" || len(s.Edits) != 1 {
		t.Errorf("Parse() = %+v", s)
	}
}

func TestParse_BraceBalancedNoFence(t *testing.T) {
	text := `Sure, {"language":"go","edits":[{"file_path":"a.go","start_line":1,"end_line":1,"original_lines":["x"],"replacement":"y"}],"explanation":"fix","confidence":80} is the result.`

	s := Parse(text)
	if s == nil {
		t.Fatal("Parse() = nil, want a suggestion")
	}
	if s.Confidence != 80 {
		t.Errorf("Confidence = %d, want 80", s.Confidence)
	}
}

func TestParse_BraceInsideStringDoesNotConfuseScan(t *testing.T) {
	text := `{"language":"go","edits":[{"file_path":"a.go","start_line":1,"end_line":1,"original_lines":["x { y }"],"replacement":"z"}],"explanation":"has a { brace } in a string","confidence":50}`

	s := Parse(text)
	if s == nil {
		t.Fatal("Parse() = nil, want a suggestion despite braces embedded in strings")
	}
	if s.Edits[0].OriginalLines[0] != "x { y }" {
		t.Errorf("OriginalLines[0] = %q, want %q", s.Edits[0].OriginalLines[0], "x { y }")
	}
}

func TestParse_LegacySchemaNormalized(t *testing.T) {
	text := `{"language":"go","file_path":"a.go","start_line":2,"original_lines":["x","y"],"replacement_lines":["z"],"explanation":"fix","confidence":70}`

	s := Parse(text)
	if s == nil {
		t.Fatal("Parse() = nil, want the legacy schema normalized into edits[0]")
	}
	if len(s.Edits) != 1 {
		t.Fatalf("len(Edits) = %d, want 1", len(s.Edits))
	}
	e := s.Edits[0]
	if e.FilePath != "a.go" || e.StartLine != 2 || e.EndLine != 3 {
		t.Errorf("Edits[0] = %+v, want a.go lines 2-3 (end_line inferred)", e)
	}
	if e.Replacement != "z" {
		t.Errorf("Replacement = %q, want %q", e.Replacement, "z")
	}
}

func TestParse_NoOverlapViolationRejected(t *testing.T) {
	text := `{"language":"go","edits":[
		{"file_path":"a.go","start_line":1,"end_line":5,"original_lines":["x"],"replacement":"y"},
		{"file_path":"a.go","start_line":3,"end_line":4,"original_lines":["z"],"replacement":"w"}
	],"explanation":"fix","confidence":90}`

	if s := Parse(text); s != nil {
		t.Errorf("Parse() = %+v, want nil for overlapping edits in the same file", s)
	}
}

func TestParse_EmptyEditsRejected(t *testing.T) {
	text := `{"language":"go","edits":[],"explanation":"nothing to fix","confidence":0}`
	if s := Parse(text); s != nil {
		t.Errorf("Parse() = %+v, want nil for an empty edits array", s)
	}
}

func TestParse_ConfidenceOutOfRangeRejected(t *testing.T) {
	text := `{"language":"go","edits":[{"file_path":"a.go","start_line":1,"end_line":1,"original_lines":["x"],"replacement":"y"}],"explanation":"fix","confidence":150}`
	if s := Parse(text); s != nil {
		t.Errorf("Parse() = %+v, want nil for confidence out of [0,100]", s)
	}
}

func TestParse_NoJSONFound(t *testing.T) {
	if s := Parse("I could not determine a fix."); s != nil {
		t.Errorf("Parse() = %+v, want nil when no JSON object is present", s)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if s := Parse("   "); s != nil {
		t.Errorf("Parse() = %+v, want nil for blank input", s)
	}
}

func TestParse_MalformedJSONRejected(t *testing.T) {
	if s := Parse(`{"language": "go", "edits": [}`); s != nil {
		t.Errorf("Parse() = %+v, want nil for malformed JSON", s)
	}
}
