package swift

import "testing"

func TestParser_Parse_FatalErrorWithLocation(t *testing.T) {
	stderr := "Fatal error: Index out of range: file /Users/dev/main.swift, line 10\n"

	result := New().Parse(stderr)
	if !result.Success {
		t.Fatalf("Parse() Success = false, want true")
	}
	if result.Exception.Type != "FatalError" {
		t.Errorf("Exception.Type = %q, want FatalError", result.Exception.Type)
	}
	if len(result.Frames) != 1 || result.Frames[0].FilePath != "/Users/dev/main.swift" || result.Frames[0].Line != 10 {
		t.Errorf("Frames = %+v, want synthesized frame at main.swift:10", result.Frames)
	}
}

func TestParser_Parse_BareFatalErrorNoLocation(t *testing.T) {
	stderr := "Fatal error: Unexpectedly found nil while unwrapping an Optional value\n"

	result := New().Parse(stderr)
	if !result.Success {
		t.Fatalf("Parse() Success = false, want true")
	}
	if result.Exception.Type != "FatalError" {
		t.Errorf("Exception.Type = %q, want FatalError", result.Exception.Type)
	}
	if len(result.Frames) != 0 {
		t.Errorf("Frames = %+v, want no frames without a call stack or header location", result.Frames)
	}
}

func TestParser_CanParse_NoSignal(t *testing.T) {
	if got := New().CanParse("Build complete!"); got != 0 {
		t.Errorf("CanParse() = %v, want ConfidenceNone", got)
	}
}
