package inlining

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKVPackSDoesNotInlineBeforeWarmup(t *testing.T) {
	p := NewKVPackS(32, 10)
	for i := 0; i < 9; i++ {
		ctx := Context{KeySize: 8, ValueSize: 40}
		assert.False(t, p.ShouldInline(ctx))
		p.Update(ctx)
	}
}

func TestKVPackSFixesThresholdAfterWarmup(t *testing.T) {
	p := NewKVPackS(32, 10)
	ctx := Context{KeySize: 8, ValueSize: 40} // inlineFrameTotal = 60, frames = 2
	for i := 0; i < 10; i++ {
		p.Update(ctx)
	}
	assert.True(t, p.ShouldInline(ctx))
	assert.False(t, p.ShouldInline(Context{KeySize: 8, ValueSize: 1000}))
}

func TestKVPackDRecomputesMonotonically(t *testing.T) {
	p := NewKVPackD(32, 5, 5)

	small := Context{KeySize: 8, ValueSize: 20} // small frame footprint
	for i := 0; i < 5; i++ {
		p.Update(small)
	}
	firstThreshold := p.threshold
	assert.Greater(t, firstThreshold, 0)

	large := Context{KeySize: 8, ValueSize: 2000} // pushes the popular bucket up
	for i := 0; i < 5; i++ {
		p.Update(large)
	}
	assert.GreaterOrEqual(t, p.threshold, firstThreshold)
}

func TestMostPopularFramesTieBreakIsDeterministic(t *testing.T) {
	counts := map[int]int64{3: 5, 1: 5, 2: 5}
	assert.Equal(t, 1, mostPopularFrames(counts))
}
