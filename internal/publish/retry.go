package publish

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// MaxRetries bounds the retries after the first attempt.
const MaxRetries = 3

// withRetry runs fn until it succeeds, fails permanently or runs out of
// retries. It returns the number of attempts made.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) (int, error) {
	kind, _, _ := strings.Cut(op, " ")
	var err error
	for attempt := 0; ; attempt++ {
		start := time.Now()
		err = fn()
		c.stats.Record(kind, time.Since(start), err)
		if err == nil || !IsRetryable(err) || attempt == MaxRetries {
			return attempt + 1, err
		}
		c.log.Warn("retryable publish error", "op", op, "attempt", attempt, "error", err)
		if serr := c.sleep(ctx, Backoff(attempt)); serr != nil {
			return attempt + 1, serr
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
