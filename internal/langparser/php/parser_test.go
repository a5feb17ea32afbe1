package php

import "testing"

func TestParser_Parse_UncaughtWithTrace(t *testing.T) {
	stderr := "PHP Fatal error:  Uncaught DivisionByZeroError: Division by zero in /var/www/test.php:3\n" +
		"Stack trace:\n" +
		"#0 /var/www/test.php(8): divide(10, 0)\n" +
		"#1 {main}\n"

	result := New().Parse(stderr)
	if !result.Success {
		t.Fatalf("Parse() Success = false, want true")
	}
	if result.Exception.Type != "DivisionByZeroError" {
		t.Errorf("Exception.Type = %q, want DivisionByZeroError", result.Exception.Type)
	}
	if len(result.Frames) != 1 {
		t.Fatalf("len(Frames) = %d, want 1", len(result.Frames))
	}
	if result.Frames[0].FilePath != "/var/www/test.php" || result.Frames[0].Line != 8 {
		t.Errorf("Frames[0] = %+v", result.Frames[0])
	}
}

func TestParser_Parse_UncaughtWithoutTraceSynthesizesFrame(t *testing.T) {
	stderr := "PHP Fatal error:  Uncaught Error: Call to undefined function foo() in /var/www/test.php:5\n"

	result := New().Parse(stderr)
	if !result.Success {
		t.Fatalf("Parse() Success = false, want true")
	}
	if len(result.Frames) != 1 {
		t.Fatalf("len(Frames) = %d, want 1 synthesized frame", len(result.Frames))
	}
	if result.Frames[0].FilePath != "/var/www/test.php" || result.Frames[0].Line != 5 {
		t.Errorf("Frames[0] = %+v, want header file:line", result.Frames[0])
	}
}

func TestParser_Parse_VendorFrameNotUserCode(t *testing.T) {
	stderr := "PHP Fatal error:  Uncaught Exception: boom in /var/www/test.php:1\n" +
		"#0 /var/www/vendor/pkg/lib.php(2): something()\n"

	result := New().Parse(stderr)
	if !result.Success || len(result.Frames) != 1 {
		t.Fatalf("Parse() = %+v", result)
	}
	if result.Frames[0].IsUserCode {
		t.Errorf("Frames[0].IsUserCode = true, want false for a /vendor/ frame")
	}
}

func TestParser_CanParse_NoSignal(t *testing.T) {
	if got := New().CanParse("Nothing to see here"); got != 0 {
		t.Errorf("CanParse() = %v, want ConfidenceNone", got)
	}
}
