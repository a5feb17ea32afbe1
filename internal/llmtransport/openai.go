package llmtransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIAdapter issues single-turn chat completion requests against an
// OpenAI-compatible chat completions endpoint, shaping the request body
// directly over net/http.
type OpenAIAdapter struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	retryCount  int
	timeout     time.Duration
}

// OpenAIOptions configures an OpenAIAdapter.
type OpenAIOptions struct {
	APIKey      string
	Endpoint    string // defaults to defaultOpenAIEndpoint
	Model       string
	MaxTokens   int
	Temperature float64
	RetryCount  int
	Timeout     time.Duration
}

// NewOpenAI builds an adapter around the given API key and options.
func NewOpenAI(opts OpenAIOptions) (*OpenAIAdapter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai: no API key provided")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultOpenAIEndpoint
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &OpenAIAdapter{
		httpClient:  &http.Client{},
		endpoint:    opts.Endpoint,
		apiKey:      opts.APIKey,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		retryCount:  opts.RetryCount,
		timeout:     opts.Timeout,
	}, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends systemPrompt and userPrompt to the model and returns
// choices[0].message.content, retrying per the shared backoff policy.
func (a *OpenAIAdapter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return doWithRetry(ctx, func(attemptCtx context.Context) (string, error) {
		return a.callOnce(attemptCtx, systemPrompt, userPrompt)
	}, a.retryCount, a.timeout)
}

func (a *OpenAIAdapter) callOnce(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(openAIRequest{
		Model: a.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("openai: status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}
