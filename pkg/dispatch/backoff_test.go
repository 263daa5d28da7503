package dispatch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
)

func TestExponentialBackoff_NextInterval(t *testing.T) {
	t.Parallel()

	b := dispatch.ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2,
	}

	assert.Equal(t, time.Duration(0), b.NextInterval(0))
	assert.Equal(t, 100*time.Millisecond, b.NextInterval(1))
	assert.Equal(t, 200*time.Millisecond, b.NextInterval(2))
	assert.Equal(t, 400*time.Millisecond, b.NextInterval(3))
	assert.Equal(t, 3200*time.Millisecond, b.NextInterval(6))
	assert.Equal(t, 5*time.Second, b.NextInterval(7), "capped at MaxDelay")
	assert.Equal(t, 5*time.Second, b.NextInterval(20))
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	t.Parallel()

	b := dispatch.ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.02,
	}

	// Jitter is additive and bounded by 2% of the capped delay.
	for i := 0; i < 100; i++ {
		d := b.NextInterval(3)
		assert.GreaterOrEqual(t, d, 400*time.Millisecond)
		assert.LessOrEqual(t, d, 408*time.Millisecond)
	}
}

func TestExponentialBackoff_Defaults(t *testing.T) {
	t.Parallel()

	var b dispatch.ExponentialBackoff
	assert.Equal(t, 100*time.Millisecond, b.NextInterval(1))
	assert.Equal(t, 5*time.Second, b.NextInterval(10))
}

func TestLinearBackoff(t *testing.T) {
	t.Parallel()

	b := dispatch.LinearBackoff{
		Interval:    200 * time.Millisecond,
		MaxInterval: time.Second,
	}

	assert.Equal(t, time.Duration(0), b.NextInterval(0))
	assert.Equal(t, 200*time.Millisecond, b.NextInterval(1))
	assert.Equal(t, 400*time.Millisecond, b.NextInterval(2))
	assert.Equal(t, time.Second, b.NextInterval(5), "capped at MaxInterval")
	assert.Equal(t, time.Second, b.NextInterval(50))

	var zero dispatch.LinearBackoff
	assert.Equal(t, 100*time.Millisecond, zero.NextInterval(1))
	assert.Equal(t, 5*time.Second, zero.NextInterval(100))
}

func TestFixedBackoff(t *testing.T) {
	t.Parallel()

	b := dispatch.FixedBackoff{Interval: time.Second}
	assert.Equal(t, time.Duration(0), b.NextInterval(0))
	assert.Equal(t, time.Second, b.NextInterval(1))
	assert.Equal(t, time.Second, b.NextInterval(9))
}
