package llmtransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewOpenAI_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIOptions{}); err == nil {
		t.Error("NewOpenAI() err = nil, want an error when no API key is provided")
	}
}

func TestOpenAIAdapter_Complete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization header = %q, want %q", got, "Bearer sk-test")
		}
		var req openAIRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o" {
			t.Errorf("request model = %q, want %q", req.Model, "gpt-4o")
		}
		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []struct {
				Message openAIMessage `json:"message"`
			}{{Message: openAIMessage{Role: "assistant", Content: `{"edits":[]}`}}},
		})
	}))
	defer srv.Close()

	a, err := NewOpenAI(OpenAIOptions{APIKey: "sk-test", Endpoint: srv.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewOpenAI() err = %v", err)
	}

	got, err := a.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete() err = %v", err)
	}
	if got != `{"edits":[]}` {
		t.Errorf("Complete() = %q, want %q", got, `{"edits":[]}`)
	}
}

func TestOpenAIAdapter_Complete_RetriesOn503ThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []struct {
				Message openAIMessage `json:"message"`
			}{{Message: openAIMessage{Content: "recovered"}}},
		})
	}))
	defer srv.Close()

	a, err := NewOpenAI(OpenAIOptions{APIKey: "sk-test", Endpoint: srv.URL, RetryCount: 1, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewOpenAI() err = %v", err)
	}

	got, err := a.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete() err = %v", err)
	}
	if got != "recovered" || attempts != 2 {
		t.Errorf("Complete() = (%q, attempts=%d), want (\"recovered\", 2)", got, attempts)
	}
}

func TestOpenAIAdapter_Complete_NonRetryableStatusFailsImmediately(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	a, err := NewOpenAI(OpenAIOptions{APIKey: "sk-test", Endpoint: srv.URL, RetryCount: 3, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewOpenAI() err = %v", err)
	}

	if _, err := a.Complete(context.Background(), "system", "user"); err == nil {
		t.Error("Complete() err = nil, want an error for a 400 response")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (400 is not retryable)", attempts)
	}
}
