package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss is what backends return internally for an absent key.
	// [Cache.Get] reports misses as ok=false and never returns it.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNetwork marks transient transport failures such as timeouts,
	// refused or reset connections.
	ErrNetwork = errors.New("network error")
)

// retryableError marks an error worth another attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err, or anything it wraps, was marked with
// [Retryable].
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// backoff controls [RetryWithBackoff]. Tests shrink base.
var backoff = struct {
	attempts int
	base     time.Duration
	max      time.Duration
}{attempts: 3, base: 100 * time.Millisecond, max: time.Second}

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// [Retryable], or runs out of attempts. The wait doubles after each failure.
// Cancelling ctx aborts the wait and returns ctx.Err().
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	wait := backoff.base
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt >= backoff.attempts {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, backoff.max)
	}
}
