package llmtransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

func TestNewAnthropic_RequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropic(AnthropicOptions{}); err == nil {
		t.Error("NewAnthropic() err = nil, want an error when no API key is provided")
	}
}

func mockMessageResponse(text string) map[string]any {
	return map[string]any{
		"id":   "msg_test",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":         "claude-sonnet-4-5-20250514",
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage": map[string]any{
			"input_tokens":  int64(10),
			"output_tokens": int64(5),
		},
	}
}

func testAdapter(serverURL string, retryCount int, timeout time.Duration) *AnthropicAdapter {
	return &AnthropicAdapter{
		api: anthropic.NewClient(
			option.WithBaseURL(serverURL),
			option.WithAPIKey("test-api-key"),
			option.WithMaxRetries(0),
		),
		model:      anthropic.ModelClaudeSonnet4_5,
		maxTokens:  1024,
		retryCount: retryCount,
		timeout:    timeout,
	}
}

func TestAnthropicAdapter_Complete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockMessageResponse(`{"edits":[]}`))
	}))
	defer srv.Close()

	a := testAdapter(srv.URL, 0, 2*time.Second)
	got, err := a.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete() err = %v", err)
	}
	if got != `{"edits":[]}` {
		t.Errorf("Complete() = %q, want %q", got, `{"edits":[]}`)
	}
}

func TestAnthropicAdapter_Complete_RetriesOn503ThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{
				"type":  "error",
				"error": map[string]any{"type": "overloaded_error", "message": "overloaded"},
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockMessageResponse("recovered"))
	}))
	defer srv.Close()

	a := testAdapter(srv.URL, 1, 2*time.Second)
	got, err := a.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete() err = %v", err)
	}
	if got != "recovered" || attempts != 2 {
		t.Errorf("Complete() = (%q, attempts=%d), want (\"recovered\", 2)", got, attempts)
	}
}

func TestAnthropicAdapter_Complete_NonRetryableStatusFailsImmediately(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "invalid_request_error", "message": "bad request"},
		})
	}))
	defer srv.Close()

	a := testAdapter(srv.URL, 3, 2*time.Second)
	if _, err := a.Complete(context.Background(), "system", "user"); err == nil {
		t.Error("Complete() err = nil, want an error for a 400 response")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (400 is not retryable)", attempts)
	}
}
