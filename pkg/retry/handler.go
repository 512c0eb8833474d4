package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/kelvie/precache/pkg/failure"
	"github.com/kelvie/precache/pkg/timeutil"
)

// Retry executes the provided function with retry logic.
// It will retry the function up to MaxAttempts times, applying exponential
// backoff with jitter between attempts. Only retryable errors trigger a
// retry; the first non-retryable error is returned as-is.
//
// The wait between attempts is interruptible: if ctx is done while
// sleeping, Retry returns immediately with an ErrContextDone RetryError.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](ctx context.Context, retryParam RetryParam, fn func() (T, failure.ClassifiedError)) (T, failure.ClassifiedError) {
	var lastErr failure.ClassifiedError
	var zero T

	if retryParam.MaxAttempts < 1 {
		return zero, &RetryError{
			Message:   "max attempt cannot be 0",
			Cause:     ErrZeroAttempt,
			Retryable: true,
		}
	}

	// Seeded generator so jitter stays reproducible given identical inputs
	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isErrorRetryable(err) {
			return zero, err
		}

		if attempt == retryParam.MaxAttempts {
			break
		}

		backoffDelay := timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			rng,
			retryParam.BackoffParam,
		)

		select {
		case <-ctx.Done():
			return zero, &RetryError{
				Message:   fmt.Sprintf("aborted after %d attempts: %v", attempt, ctx.Err()),
				Cause:     ErrContextDone,
				Retryable: false,
				LastErr:   lastErr,
			}
		case <-time.After(backoffDelay):
		}
	}

	return zero, &RetryError{
		Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
		Cause:     ErrExhaustedAttempts,
		Retryable: true, // recoverable at installer level
		LastErr:   lastErr,
	}
}

// isErrorRetryable checks if an error should be retried.
// Errors without an IsRetryable method default to retryable.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}

	return true
}
