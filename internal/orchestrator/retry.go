package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds generation attempts for one persona.
// The pause before a retry depends on how the previous attempt failed.
type RetryPolicy struct {
	MaxAttempts int
	EmptyDelay  time.Duration
	ErrorDelay  time.Duration
}

// DefaultRetryPolicy returns two attempts with a short pause after an empty
// result and a longer one after an error.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, EmptyDelay: 500 * time.Millisecond, ErrorDelay: time.Second}
}

// Attempt is one generation call.
type Attempt func(ctx context.Context) (string, error)

// Run calls fn until it yields non-blank text, the attempts run out or ctx ends.
// It returns the text and the number of attempts made.
func (p RetryPolicy) Run(ctx context.Context, fn Attempt) (string, int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		text      string
		attempts  int
		lastEmpty bool
	)
	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.BackoffFunc(func() (time.Duration, bool) {
		if lastEmpty {
			return p.EmptyDelay, false
		}
		return p.ErrorDelay, false
	}))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		out, err := fn(ctx)
		if err != nil {
			lastEmpty = false
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		if strings.TrimSpace(out) == "" {
			lastEmpty = true
			return retry.RetryableError(errEmptyGeneration)
		}
		text = out
		return nil
	})
	return text, attempts, err
}
