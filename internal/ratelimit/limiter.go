// Package ratelimit implements the pipeline's two-level LLM admission
// control: a global concurrency semaphore shared by every provider, and
// a per-provider token bucket refilled lazily from wall-clock elapsed
// time on each access, with no background ticker.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	// DefaultMaxConcurrent caps simultaneous in-flight LLM calls across
	// every provider.
	DefaultMaxConcurrent = 5
	// DefaultRequestsPerMinute is a bucket's default capacity and refill
	// rate.
	DefaultRequestsPerMinute = 60

	pollInterval = 100 * time.Millisecond
)

// Limiter admits LLM calls under a shared concurrency cap and
// per-provider rate limits.
type Limiter struct {
	sem *semaphore.Weighted

	mu      sync.Mutex
	buckets map[string]*bucket
	rpm     int
}

// bucket is a token bucket with lazy wall-clock refill.
type bucket struct {
	capacity float64
	tokens   float64
	lastFill time.Time
}

// New creates a Limiter with the given concurrency cap and per-provider
// requests-per-minute rate. A non-positive value falls back to the
// default.
func New(maxConcurrent, requestsPerMinute int) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return &Limiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		buckets: make(map[string]*bucket),
		rpm:     requestsPerMinute,
	}
}

// Permit releases a concurrency slot taken by Acquire or TryAcquire.
type Permit struct {
	limiter *Limiter
}

// Release returns the concurrency slot to the limiter. Safe to call
// once; calling it more than once double-releases the semaphore.
func (p *Permit) Release() {
	p.limiter.sem.Release(1)
}

// Acquire takes a concurrency slot, then blocks (polling every 100 ms,
// cooperatively cancellable) until the named provider's bucket has at
// least one token, which it then deducts.
func (l *Limiter) Acquire(ctx context.Context, provider string) (*Permit, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	for {
		if l.takeToken(provider) {
			return &Permit{limiter: l}, nil
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.sem.Release(1)
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire is the non-blocking form: it requires both a free
// concurrency slot and an available token. On any miss it releases any
// slot it took and returns false.
func (l *Limiter) TryAcquire(provider string) (*Permit, bool) {
	if !l.sem.TryAcquire(1) {
		return nil, false
	}
	if !l.takeToken(provider) {
		l.sem.Release(1)
		return nil, false
	}
	return &Permit{limiter: l}, true
}

// takeToken refills the provider's bucket for elapsed wall-clock time
// and deducts one token if available.
func (l *Limiter) takeToken(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(provider)
	l.refill(b)

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) bucketFor(provider string) *bucket {
	b, ok := l.buckets[provider]
	if !ok {
		b = &bucket{
			capacity: float64(l.rpm),
			tokens:   float64(l.rpm),
			lastFill: time.Now(),
		}
		l.buckets[provider] = b
	}
	return b
}

func (l *Limiter) refill(b *bucket) {
	now := time.Now()
	elapsed := now.Sub(b.lastFill).Seconds()
	b.lastFill = now
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * (b.capacity / 60)
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// AvailableTokens reports the provider's current token count after a
// lazy refill, for observability.
func (l *Limiter) AvailableTokens(provider string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.bucketFor(provider)
	l.refill(b)
	return b.tokens
}

// EstimatedWait reports how long a caller should expect to wait for a
// token to become available: max(0, (1 - tokens) * 60s / capacity).
func (l *Limiter) EstimatedWait(provider string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.bucketFor(provider)
	l.refill(b)

	deficit := 1 - b.tokens
	if deficit <= 0 {
		return 0
	}
	seconds := deficit * 60 / b.capacity
	return time.Duration(seconds * float64(time.Second))
}
