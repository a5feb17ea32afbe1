package java

import "testing"

func TestParser_Parse_ArithmeticException(t *testing.T) {
	stderr := "Exception in thread \"main\" java.lang.ArithmeticException: / by zero\n" +
		"\tat com.example.App.divide(App.java:10)\n" +
		"\tat com.example.App.main(App.java:5)\n"

	result := New().Parse(stderr)
	if !result.Success {
		t.Fatalf("Parse() Success = false, want true")
	}
	if result.Exception.Type != "java.lang.ArithmeticException" {
		t.Errorf("Exception.Type = %q, want java.lang.ArithmeticException", result.Exception.Type)
	}
	if len(result.Frames) != 2 {
		t.Fatalf("len(Frames) = %d, want 2", len(result.Frames))
	}
	if result.Frames[0].FilePath != "App.java" || result.Frames[0].Line != 10 || result.Frames[0].Function != "divide" {
		t.Errorf("Frames[0] = %+v", result.Frames[0])
	}
	if !result.Frames[0].IsUserCode {
		t.Errorf("Frames[0].IsUserCode = false, want true")
	}
}

func TestParser_Parse_LibraryFrameNotUserCode(t *testing.T) {
	stderr := "Exception in thread \"main\" java.lang.NullPointerException\n" +
		"\tat java.base.internal.Foo.bar(Foo.java:1)\n"

	result := New().Parse(stderr)
	if !result.Success || len(result.Frames) != 1 {
		t.Fatalf("Parse() = %+v", result)
	}
	if result.Frames[0].IsUserCode {
		t.Errorf("Frames[0].IsUserCode = true, want false for a java.* frame")
	}
}

func TestParser_Parse_CausedByChain(t *testing.T) {
	stderr := "Exception in thread \"main\" com.example.WrapperException: outer\n" +
		"\tat com.example.App.run(App.java:3)\n" +
		"Caused by: java.lang.NullPointerException: inner\n"

	result := New().Parse(stderr)
	if !result.Success {
		t.Fatalf("Parse() Success = false, want true")
	}
	if result.Exception.Inner == "" {
		t.Errorf("Exception.Inner = \"\", want the caused-by chain recorded")
	}
}

func TestParser_CanParse_NoSignal(t *testing.T) {
	if got := New().CanParse("no stack trace here"); got != 0 {
		t.Errorf("CanParse() = %v, want ConfidenceNone", got)
	}
}
