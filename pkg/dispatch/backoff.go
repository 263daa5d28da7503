package dispatch

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay before a retry attempt.
// Implementations must be safe for concurrent use.
type BackoffStrategy interface {
	// NextInterval returns the delay before the given retry.
	// Attempt starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay per retry up to a cap, with a small
// additive jitter so simultaneous retries across many notifications do not
// line up into a thundering herd.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// NextInterval computes min(BaseDelay * Multiplier^(attempt-1), MaxDelay)
// plus up to JitterFactor of the capped delay.
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := e.BaseDelay
	if base == 0 {
		base = 100 * time.Millisecond
	}
	max := e.MaxDelay
	if max == 0 {
		max = 5 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	delay := float64(base) * math.Pow(multiplier, float64(attempt-1))
	if delay > float64(max) {
		delay = float64(max)
	}

	if e.JitterFactor > 0 {
		delay += rand.Float64() * e.JitterFactor * delay
	}

	return time.Duration(delay)
}

// LinearBackoff grows the delay by a fixed step per retry, capped at
// MaxInterval. No jitter, so retry timing stays predictable.
type LinearBackoff struct {
	Interval    time.Duration
	MaxInterval time.Duration
}

// NextInterval returns min(Interval * attempt, MaxInterval).
func (l LinearBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := l.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	max := l.MaxInterval
	if max == 0 {
		max = 5 * time.Second
	}

	delay := interval * time.Duration(attempt)
	if delay > max {
		delay = max
	}
	return delay
}

// FixedBackoff waits the same interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// DefaultBackoffStrategy returns the production retry curve:
// 100ms, 200ms, 400ms, ... capped at 5s, with 2% jitter.
func DefaultBackoffStrategy() BackoffStrategy {
	return ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.02,
	}
}
