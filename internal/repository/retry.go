package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	// QueryTimeout bounds a single attempt of any data-store call that
	// opts into the retry policy.
	QueryTimeout = 15 * time.Second

	maxRetries  = 3
	backoffStep = 500 * time.Millisecond
)

// linearBackoff grows the delay by a fixed step per attempt:
// step, 2*step, 3*step.
type linearBackoff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackoff) Next() (time.Duration, bool) {
	b.attempt++
	return time.Duration(b.attempt) * b.step, false
}

// WithRetry runs fn under the shared timeout/retry policy: each attempt
// gets QueryTimeout, and only timeouts are retried (up to 3 times with
// linearly increasing backoff). Every other error class fails
// immediately.
func WithRetry(ctx context.Context, logger *zap.Logger, op string, fn func(context.Context) error) error {
	b := retry.WithMaxRetries(maxRetries, &linearBackoff{step: backoffStep})

	return retry.Do(ctx, b, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}

		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Operation timed out, retrying",
				zap.String("op", op),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}

		return err
	})
}
