package api

import (
	"math"
	"math/rand"
	"time"
)

// retryPolicy configures exponential backoff between retry attempts.
type retryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// delay returns the backoff before retry attempt n (0-indexed):
// initial * 2^n capped at MaxBackoff, plus up to 25% jitter so concurrent
// callers do not retry in lockstep.
func (p retryPolicy) delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := float64(p.InitialBackoff) * math.Pow(2, float64(attempt))
	if d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	d += d * 0.25 * rand.Float64()

	return time.Duration(d)
}
