// Package llmtransport implements the OpenAI and Anthropic provider
// adapters and the retry core they share: delay = 2^(attempt-1)s +
// uniform(0, 500ms) jitter, at most retryCount+1 attempts, retrying
// only on a fixed HTTP status set or a synthetic per-attempt timeout.
package llmtransport

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// ErrTimeout is raised when a single attempt exceeds its per-call
// timeout.
var ErrTimeout = errors.New("llm request timed out")

// retryableStatus is the fixed set of HTTP statuses that trigger a
// retry.
var retryableStatus = map[int]bool{
	429: true, 500: true, 502: true, 503: true, 504: true,
}

// StatusError carries the HTTP status code of a failed provider call so
// the retry core can classify it without parsing response bodies.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string { return e.Err.Error() }
func (e *StatusError) Unwrap() error { return e.Err }

// Retryable reports whether err falls in the retryable category: a
// synthetic per-attempt timeout or an HTTP status in the fixed set.
// Callers see it only after retries are exhausted.
func Retryable(err error) bool {
	return isRetryable(err)
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus[statusErr.Status]
	}
	return false
}

// call is one provider round-trip: issue the request under the given
// per-attempt timeout, returning the response text or an error.
type call func(ctx context.Context) (string, error)

// doWithRetry runs fn up to retryCount+1 times, applying the per-call
// timeout to each attempt and the jittered backoff between retryable
// failures. A caller-originated cancellation (ctx.Err() on
// the outer context) or a non-retryable error terminates immediately.
func doWithRetry(ctx context.Context, fn call, retryCount int, perCallTimeout time.Duration) (string, error) {
	maxAttempts := retryCount + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := attemptWithTimeout(ctx, fn, perCallTimeout)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			return "", err
		}
		if attempt == maxAttempts {
			break
		}

		delay := backoff(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return "", lastErr
}

// attemptWithTimeout runs a single call, converting its own expiry into
// ErrTimeout rather than leaking a generic context.DeadlineExceeded.
func attemptWithTimeout(ctx context.Context, fn call, timeout time.Duration) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := fn(attemptCtx)
	if err != nil && attemptCtx.Err() != nil && ctx.Err() == nil {
		return "", ErrTimeout
	}
	return text, err
}

// backoff computes 2^(attempt-1) seconds plus uniform(0, 500ms) jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt-1)) * time.Second
	jitter := time.Duration(rand.Float64() * float64(500*time.Millisecond)) //nolint:gosec // jitter only
	return base + jitter
}
