package inlining

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftlsim/kvssd/internal/ftlerr"
)

func TestNewConstructsEveryMode(t *testing.T) {
	for _, mode := range []Mode{ModeBaseline, ModeKVPackS, ModeKVPackD, ModeMLLinear, ModeMLBandit} {
		p, err := New(Params{Mode: mode, EntrySize: 32, PPASize: 8, ProfilerWarmup: 10, ProfilerInterval: 10})
		require.NoError(t, err)
		require.NotNil(t, p)
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(Params{Mode: "bogus"})
	assert.ErrorIs(t, err, ftlerr.UnknownMode)
}
