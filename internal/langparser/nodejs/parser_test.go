package nodejs

import "testing"

func TestParser_Parse_TypeErrorWithNamedFrame(t *testing.T) {
	stderr := "TypeError: Cannot read properties of undefined (reading 'x')\n" +
		"    at run (/home/user/app/index.js:10:5)\n" +
		"    at Object.<anonymous> (/home/user/app/index.js:20:1)\n"

	result := New().Parse(stderr)
	if !result.Success {
		t.Fatalf("Parse() Success = false, want true")
	}
	if result.Exception.Type != "TypeError" {
		t.Errorf("Exception.Type = %q, want TypeError", result.Exception.Type)
	}
	if len(result.Frames) != 2 {
		t.Fatalf("len(Frames) = %d, want 2", len(result.Frames))
	}
	if result.Frames[0].FilePath != "/home/user/app/index.js" || result.Frames[0].Line != 10 {
		t.Errorf("Frames[0] = %+v", result.Frames[0])
	}
	if !result.Frames[0].IsUserCode {
		t.Errorf("Frames[0].IsUserCode = false, want true")
	}
}

func TestParser_Parse_NodeModulesNotUserCode(t *testing.T) {
	stderr := "Error: boom\n    at x (/home/user/app/node_modules/pkg/index.js:1:1)\n"

	result := New().Parse(stderr)
	if !result.Success || len(result.Frames) != 1 {
		t.Fatalf("Parse() = %+v", result)
	}
	if result.Frames[0].IsUserCode {
		t.Errorf("Frames[0].IsUserCode = true, want false for a node_modules frame")
	}
}

func TestParser_Parse_AnonymousFrame(t *testing.T) {
	stderr := "ReferenceError: x is not defined\n    at /home/user/app/script.js:3:1\n"

	result := New().Parse(stderr)
	if !result.Success || len(result.Frames) != 1 {
		t.Fatalf("Parse() = %+v", result)
	}
	if result.Frames[0].Line != 3 || result.Frames[0].Column != 1 {
		t.Errorf("Frames[0] = %+v, want line 3 col 1", result.Frames[0])
	}
}

func TestParser_CanParse_NoSignal(t *testing.T) {
	if got := New().CanParse("all good"); got != 0 {
		t.Errorf("CanParse() = %v, want ConfidenceNone", got)
	}
}
