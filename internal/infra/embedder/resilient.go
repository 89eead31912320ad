package embedder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/pkg/metrics"
)

// RetryPolicy bounds how long and how often an embedding call is attempted.
type RetryPolicy struct {
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = 200 * time.Millisecond
	}
	return p
}

// Resilient applies a per-attempt timeout and a fixed retry budget to another embedder.
type Resilient struct {
	next   faq.Embedder
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewResilient wraps next with the retry policy.
func NewResilient(next faq.Embedder, policy RetryPolicy, logger *slog.Logger) *Resilient {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resilient{
		next:   next,
		policy: policy.withDefaults(),
		logger: logger.With("component", "embedder.resilient"),
		sleep:  sleepContext,
	}
}

// Embed calls the wrapped embedder, retrying failed attempts with linear backoff.
func (r *Resilient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	started := time.Now()
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		vectors, err := r.attempt(ctx, texts)
		if err == nil {
			metrics.ObserveEmbedding(time.Since(started), nil)
			return vectors, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
		if attempt < r.policy.MaxAttempts {
			r.logger.Warn("embedding attempt failed, retrying", "attempt", attempt, "texts", len(texts), "error", err)
			if err := r.sleep(ctx, time.Duration(attempt)*r.policy.Backoff); err != nil {
				lastErr = err
				break
			}
		}
	}
	metrics.ObserveEmbedding(time.Since(started), lastErr)
	return nil, fmt.Errorf("embedding failed after retries: %w", lastErr)
}

func (r *Resilient) attempt(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()
	return r.next.Embed(ctx, texts)
}

// PermanentError marks failures that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

func retryable(err error) bool {
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) {
		return temporary.Temporary()
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ faq.Embedder = (*Resilient)(nil)
