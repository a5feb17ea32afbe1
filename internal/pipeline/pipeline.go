// Package pipeline wires the context engine, prompt builder, rate
// limiter, LLM transport, response parser, and patcher into the
// per-failure state machine: Idle → Parsed → Prompted → Responded →
// Reviewed → (Applied|Rejected|Failed|Skipped|NoFix|AiError). One LLM
// call per failure, with a host-mediated confirmation before any write.
package pipeline

import (
	"context"
	"errors"

	"github.com/tsugix/tsugix/internal/contextengine"
	"github.com/tsugix/tsugix/internal/llmtransport"
	"github.com/tsugix/tsugix/internal/model"
	"github.com/tsugix/tsugix/internal/patcher"
	"github.com/tsugix/tsugix/internal/promptgen"
	"github.com/tsugix/tsugix/internal/ratelimit"
	"github.com/tsugix/tsugix/internal/response"
)

// Completer is the shared contract both provider adapters in
// internal/llmtransport satisfy.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Confirmer is the host-mediated confirmation step between Responded
// and Reviewed: given the proposed fix, it decides whether to apply it.
// The CLI surface supplies the interactive implementation; tests can
// supply an always-yes or always-no stub.
type Confirmer func(ctx context.Context, suggestion *model.FixSuggestion) bool

// Config bundles the collaborators a Run needs.
type Config struct {
	Engine    *contextengine.Engine
	Limiter   *ratelimit.Limiter
	Provider  string // rate-limiter bucket key, e.g. "anthropic"
	Completer Completer
	Confirm   Confirmer
	PatchOpts patcher.Options
}

// Result is the terminal record of one pipeline invocation.
type Result struct {
	State      model.Outcome
	Context    *model.ErrorContext
	Suggestion *model.FixSuggestion
	Patch      *model.PatchResult
	Err        error
}

// Run drives one CrashReport through the full pipeline, returning the
// terminal Result. It never panics: every failure mode is surfaced as
// an Outcome rather than propagated as an error from Run itself.
func Run(ctx context.Context, report model.CrashReport, skip bool, cfg Config) Result {
	if skip {
		return Result{State: model.OutcomeSkipped}
	}
	if cfg.Completer == nil {
		return Result{State: model.OutcomeSkipped}
	}

	// Parsed.
	errCtx := cfg.Engine.Process(report)
	if errCtx == nil {
		return Result{State: model.OutcomeSkipped}
	}

	// Prompted: render the payload, then acquire a rate-limit permit.
	systemPrompt, userPayload, err := promptgen.Build(errCtx)
	if err != nil {
		return Result{State: model.OutcomeFailed, Context: errCtx, Err: err}
	}

	permit, err := cfg.Limiter.Acquire(ctx, cfg.Provider)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Result{State: model.OutcomeSkipped, Context: errCtx}
		}
		return Result{State: model.OutcomeFailed, Context: errCtx, Err: err}
	}
	defer permit.Release()

	// Responded.
	text, err := cfg.Completer.Complete(ctx, systemPrompt, userPayload)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Result{State: model.OutcomeSkipped, Context: errCtx}
		}
		kind := model.KindLLMFatal
		switch {
		case errors.Is(err, llmtransport.ErrTimeout):
			kind = model.KindLLMTimeout
		case llmtransport.Retryable(err):
			kind = model.KindLLMRetryable
		}
		return Result{
			State:   model.OutcomeAiError,
			Context: errCtx,
			Err:     &model.KindError{Kind: kind, Err: err},
		}
	}

	// Reviewed: parse the response, then confirm with the host.
	suggestion := response.Parse(text)
	if suggestion == nil {
		return Result{State: model.OutcomeNoFix, Context: errCtx}
	}

	if cfg.Confirm != nil && !cfg.Confirm(ctx, suggestion) {
		return Result{State: model.OutcomeRejected, Context: errCtx, Suggestion: suggestion}
	}

	// Applied/Failed.
	result := patcher.Apply(suggestion, cfg.PatchOpts)
	if !result.Success {
		return Result{
			State:      model.OutcomeFailed,
			Context:    errCtx,
			Suggestion: suggestion,
			Patch:      &result,
			Err:        errors.New(result.ErrorMessage),
		}
	}

	return Result{
		State:      model.OutcomeApplied,
		Context:    errCtx,
		Suggestion: suggestion,
		Patch:      &result,
	}
}
