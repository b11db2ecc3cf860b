package remote

import (
	"math"
	"math/rand/v2"
	"time"
)

// retryPolicy is exponential backoff with jitter between attempts.
type retryPolicy struct {
	attempts   int
	backoff    time.Duration
	maxBackoff time.Duration
	multiplier float64
	jitter     float64
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		attempts:   3,
		backoff:    250 * time.Millisecond,
		maxBackoff: 5 * time.Second,
		multiplier: 2.0,
		jitter:     0.25,
	}
}

// delay is the sleep after the given failed attempt (1-based).
func (p retryPolicy) delay(attempt int) time.Duration {
	d := float64(p.backoff) * math.Pow(p.multiplier, float64(attempt-1))
	if d > float64(p.maxBackoff) {
		d = float64(p.maxBackoff)
	}
	if p.jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.jitter
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
