package llmtransport

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicAdapter issues single-turn completion requests against the
// Anthropic Messages API: one request/response round-trip per call, no
// tool use.
type AnthropicAdapter struct {
	api        anthropic.Client
	model      anthropic.Model
	maxTokens  int64
	retryCount int
	timeout    time.Duration
}

// AnthropicOptions configures an AnthropicAdapter.
type AnthropicOptions struct {
	APIKey     string
	Model      string
	MaxTokens  int64
	RetryCount int
	Timeout    time.Duration
}

// NewAnthropic builds an adapter around the given API key and options.
func NewAnthropic(opts AnthropicOptions) (*AnthropicAdapter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("anthropic: no API key provided")
	}
	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeSonnet4_5
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &AnthropicAdapter{
		api: anthropic.NewClient(
			option.WithAPIKey(opts.APIKey),
			option.WithRequestTimeout(opts.Timeout),
			option.WithMaxRetries(0),
		),
		model:      model,
		maxTokens:  opts.MaxTokens,
		retryCount: opts.RetryCount,
		timeout:    opts.Timeout,
	}, nil
}

// Complete sends systemPrompt and userPrompt to the model and returns
// the first text block of the response, retrying per the shared
// backoff policy.
func (a *AnthropicAdapter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return doWithRetry(ctx, func(attemptCtx context.Context) (string, error) {
		return a.callOnce(attemptCtx, systemPrompt, userPrompt)
	}, a.retryCount, a.timeout)
}

func (a *AnthropicAdapter) callOnce(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := a.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Status: apiErr.StatusCode, Err: err}
		}
		return "", err
	}

	for i := range resp.Content {
		if text, ok := resp.Content[i].AsAny().(anthropic.TextBlock); ok {
			return text.Text, nil
		}
	}
	return "", errors.New("anthropic: no text content in response")
}
