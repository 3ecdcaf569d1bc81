package inlining

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearRegressionTrainsAfterWarmup(t *testing.T) {
	p := NewLinearRegression(32, 20, 20)
	ctx := Context{KeySize: 8, ValueSize: 16, CMTHitRate: 0.5}

	assert.False(t, p.trained)
	for i := 0; i < 20; i++ {
		p.Feedback(ctx, true, 1) // reward +1: inline, one flash read
	}
	assert.True(t, p.trained)
	// after training entirely on reward +1 examples, the learned score for
	// this context should be positive.
	assert.True(t, p.ShouldInline(ctx))
}

func TestLinearRegressionDeterministicAcrossInstances(t *testing.T) {
	p1 := NewLinearRegression(32, 1000, 1000)
	p2 := NewLinearRegression(32, 1000, 1000)
	ctx := Context{KeySize: 8, ValueSize: 16}

	for i := 0; i < 50; i++ {
		assert.Equal(t, p1.ShouldInline(ctx), p2.ShouldInline(ctx))
	}
}
