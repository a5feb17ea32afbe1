package ruby

import "testing"

func TestParser_Parse_HeadFrameWithFromFrames(t *testing.T) {
	stderr := "test.rb:5:in `divide': divided by zero (ZeroDivisionError)\n" +
		"\tfrom test.rb:9:in `<main>'\n"

	result := New().Parse(stderr)
	if !result.Success {
		t.Fatalf("Parse() Success = false, want true")
	}
	if result.Exception.Type != "ZeroDivisionError" || result.Exception.Message != "divided by zero" {
		t.Errorf("Exception = %+v", result.Exception)
	}
	if len(result.Frames) != 2 {
		t.Fatalf("len(Frames) = %d, want 2", len(result.Frames))
	}
	if result.Frames[0].FilePath != "test.rb" || result.Frames[0].Line != 5 || result.Frames[0].Function != "divide" {
		t.Errorf("Frames[0] = %+v", result.Frames[0])
	}
}

func TestParser_Parse_GemFrameNotUserCode(t *testing.T) {
	stderr := "/home/user/.gems/gems/somegem-1.0/lib/somegem.rb:10:in `call': boom (RuntimeError)\n"

	result := New().Parse(stderr)
	if !result.Success || len(result.Frames) != 1 {
		t.Fatalf("Parse() = %+v", result)
	}
	if result.Frames[0].IsUserCode {
		t.Errorf("Frames[0].IsUserCode = true, want false for a /gems/ frame")
	}
}

func TestParser_CanParse_NoSignal(t *testing.T) {
	if got := New().CanParse("puts 'hello'"); got != 0 {
		t.Errorf("CanParse() = %v, want ConfidenceNone", got)
	}
}
