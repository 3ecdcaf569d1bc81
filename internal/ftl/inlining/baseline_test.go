package inlining

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaselineBoundary(t *testing.T) {
	b := NewBaseline(8)
	assert.True(t, b.ShouldInline(Context{ValueSize: 8}))
	assert.False(t, b.ShouldInline(Context{ValueSize: 9}))
}

func TestBaselineFeedbackIsNoOp(t *testing.T) {
	b := NewBaseline(8)
	b.Feedback(Context{}, true, 1) // must not panic
}
