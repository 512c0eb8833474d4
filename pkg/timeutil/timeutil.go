package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// ExponentialBackoffDelay computes the delay to wait before retry number
// `attempt` (1-based). The base delay grows geometrically from
// param.InitialDuration() by param.Multiplier() and is capped at
// param.MaxDuration(). A pseudo-random jitter in [0, maxJitter) is added
// after capping so the cap bounds the deterministic part only.
func ExponentialBackoffDelay(
	attempt int,
	maxJitter time.Duration,
	rng *rand.Rand,
	param BackoffParam,
) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	exponent := float64(attempt - 1)
	delay := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), exponent)
	if max := float64(param.MaxDuration()); param.MaxDuration() > 0 && delay > max {
		delay = max
	}

	if maxJitter > 0 && rng != nil {
		delay += float64(rng.Int63n(int64(maxJitter)))
	}

	return time.Duration(delay)
}

// MaxDuration returns the largest duration in the slice, or zero for an
// empty slice.
func MaxDuration(durations []time.Duration) time.Duration {
	var max time.Duration
	for _, d := range durations {
		if d > max {
			max = d
		}
	}
	return max
}
