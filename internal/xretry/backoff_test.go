package xretry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialGrowsAndCaps(t *testing.T) {
	b := NewExponential(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(100*time.Millisecond),
		WithMultiplier(2),
		WithJitter(0),
	)

	assert.Equal(t, 10*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 40*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, 80*time.Millisecond, b.NextDelay(4))
	assert.Equal(t, 100*time.Millisecond, b.NextDelay(5), "must cap at maxDelay")
}

func TestExponentialTreatsNonPositiveAttemptAsFirst(t *testing.T) {
	b := NewExponential(WithInitialDelay(10*time.Millisecond), WithJitter(0))
	assert.Equal(t, b.NextDelay(1), b.NextDelay(0))
	assert.Equal(t, b.NextDelay(1), b.NextDelay(-3))
}

func TestExponentialJitterStaysWithinBounds(t *testing.T) {
	b := NewExponential(
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithMultiplier(1),
		WithJitter(0.5),
	)
	for i := 0; i < 50; i++ {
		d := b.NextDelay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestExponentialDefaultsRejectInvalidOptions(t *testing.T) {
	b := NewExponential(WithMultiplier(0.5), WithJitter(-1), WithJitter(2), WithInitialDelay(-1), WithMaxDelay(0))
	assert.Equal(t, 10*time.Millisecond, b.initialDelay)
	assert.Equal(t, 5*time.Second, b.maxDelay)
	assert.Equal(t, 2.0, b.multiplier)
	assert.Equal(t, 1.0, b.jitter)
}

func TestExponentialMaxDelayNeverBelowInitial(t *testing.T) {
	b := NewExponential(WithInitialDelay(time.Second), WithMaxDelay(10*time.Millisecond))
	assert.Equal(t, time.Second, b.maxDelay)
}

func TestDualUsesNormalCurveByDefault(t *testing.T) {
	normal := NewExponential(WithInitialDelay(1*time.Millisecond), WithJitter(0))
	aggressive := NewExponential(WithInitialDelay(50*time.Millisecond), WithJitter(0))
	d := NewDual(normal, aggressive)

	assert.Equal(t, normal.NextDelay(2), d.NextDelay(2))

	du, ok := d.(*dual)
	assert.True(t, ok)
	assert.Equal(t, aggressive.NextDelay(2), du.aggressiveDelay(2))
}
