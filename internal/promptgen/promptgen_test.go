package promptgen

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tsugix/tsugix/internal/model"
)

func TestBuild_BasicShape(t *testing.T) {
	ctx := &model.ErrorContext{
		Language:        "python",
		Exception:       &model.ExceptionInfo{Type: "ValueError", Message: "bad input"},
		OriginalCommand: "python app.py",
		WorkingDir:      "/home/user/app",
		Frames: []model.StackFrame{
			{FilePath: "app.py", Line: 5, Function: "run", IsUserCode: true},
		},
	}

	system, payload, err := Build(ctx)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	if system != SystemPrompt {
		t.Errorf("system prompt does not match the fixed SystemPrompt constant")
	}

	var got userPayload
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if got.Language != "python" || got.Error.Type != "ValueError" {
		t.Errorf("payload = %+v, want language=python error.type=ValueError", got)
	}
	if len(got.Stack) != 1 || got.Stack[0].Line != 5 {
		t.Errorf("payload.Stack = %+v, want one frame at line 5", got.Stack)
	}
}

func TestBuild_MessageTruncatedWithSuffix(t *testing.T) {
	long := strings.Repeat("x", maxMessageChars+50)
	ctx := &model.ErrorContext{
		Exception: &model.ExceptionInfo{Type: "Error", Message: long},
	}

	_, payload, err := Build(ctx)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	var got userPayload
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if len(got.Error.Message) != maxMessageChars+3 {
		t.Errorf("len(Error.Message) = %d, want %d", len(got.Error.Message), maxMessageChars+3)
	}
	if !strings.HasSuffix(got.Error.Message, "...") {
		t.Errorf("Error.Message = %q, want suffix '...'", got.Error.Message)
	}
}

func TestBuild_ShortMessageNotTruncated(t *testing.T) {
	ctx := &model.ErrorContext{
		Exception: &model.ExceptionInfo{Type: "Error", Message: "short"},
	}
	_, payload, err := Build(ctx)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	var got userPayload
	json.Unmarshal([]byte(payload), &got)
	if got.Error.Message != "short" {
		t.Errorf("Error.Message = %q, want unchanged %q", got.Error.Message, "short")
	}
}

func TestBuild_StackFramesCappedAt20(t *testing.T) {
	ctx := &model.ErrorContext{}
	for i := 0; i < 30; i++ {
		ctx.Frames = append(ctx.Frames, model.StackFrame{FilePath: "f.go", Line: i})
	}

	_, payload, err := Build(ctx)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	var got userPayload
	json.Unmarshal([]byte(payload), &got)
	if len(got.Stack) != maxStackFrames {
		t.Errorf("len(Stack) = %d, want %d", len(got.Stack), maxStackFrames)
	}
}

func TestBuild_NoSourceWhenNoPrimaryFrame(t *testing.T) {
	ctx := &model.ErrorContext{}
	_, payload, err := Build(ctx)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	if strings.Contains(payload, "source_context") {
		t.Errorf("payload = %s, want no source_context key when there is no snippet", payload)
	}
}

func TestBuild_RawCodeTruncatedAtLineCap(t *testing.T) {
	snip := &model.SourceSnippet{FilePath: "big.go", ErrorLine: 1}
	for i := 1; i <= maxRawCodeLines+10; i++ {
		snip.Lines = append(snip.Lines, model.SourceLine{Number: i, Text: "line"})
	}
	ctx := &model.ErrorContext{
		PrimaryFrame: &model.StackFrame{Snippet: snip},
	}

	_, payload, err := Build(ctx)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	var got userPayload
	json.Unmarshal([]byte(payload), &got)
	if got.Source == nil {
		t.Fatal("Source = nil, want populated source_context")
	}
	if !got.Source.IsTruncated {
		t.Errorf("Source.IsTruncated = false, want true when lines exceed the cap")
	}
	gotLines := strings.Count(got.Source.RawCode, "\n") + 1
	if gotLines != maxRawCodeLines {
		t.Errorf("raw_code line count = %d, want %d", gotLines, maxRawCodeLines)
	}
}

func TestBuild_RawCodeTruncatedAtCharCap(t *testing.T) {
	snip := &model.SourceSnippet{FilePath: "wide.go", ErrorLine: 1}
	snip.Lines = append(snip.Lines, model.SourceLine{Number: 1, Text: strings.Repeat("x", maxRawCodeChars+100)})
	ctx := &model.ErrorContext{
		PrimaryFrame: &model.StackFrame{Snippet: snip},
	}

	_, payload, err := Build(ctx)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	var got userPayload
	json.Unmarshal([]byte(payload), &got)
	if len(got.Source.RawCode) != maxRawCodeChars {
		t.Errorf("len(RawCode) = %d, want %d", len(got.Source.RawCode), maxRawCodeChars)
	}
	if !got.Source.IsTruncated {
		t.Errorf("Source.IsTruncated = false, want true when chars exceed the cap")
	}
}
