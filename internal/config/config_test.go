package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestSmallAndGCAreValid(t *testing.T) {
	require.NoError(t, Small().Validate())
	require.NoError(t, GC().Validate())
}

func TestDerivedSizing(t *testing.T) {
	c := Default()
	assert.Equal(t, c.Flash.PageSize/c.Mapping.EntrySize, c.FramesPerTP())
	assert.Equal(t, c.CapacityBytes/c.Mapping.DataAlignment, c.MaxKVPairs())
	assert.Equal(t, c.MaxKVPairs()/c.FramesPerTP(), c.NumTranslationPages())
	assert.Equal(t, (uint64(1)<<c.Mapping.HashBits)-1, c.HashMask())
}

func TestValidateRejectsBadFields(t *testing.T) {
	for _, tbl := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.CapacityBytes = 0 }},
		{"zero page size", func(c *Config) { c.Flash.PageSize = 0 }},
		{"zero pages per block", func(c *Config) { c.Flash.PagesPerBlock = 0 }},
		{"zero entry size", func(c *Config) { c.Mapping.EntrySize = 0 }},
		{"hash bits too large", func(c *Config) { c.Mapping.HashBits = 64 }},
		{"zero max retry", func(c *Config) { c.Mapping.MaxRetry = 0 }},
		{"zero data alignment", func(c *Config) { c.Mapping.DataAlignment = 0 }},
		{"negative budget ratio", func(c *Config) { c.CMT.BudgetRatio = -0.1 }},
		{"zero read write ratio", func(c *Config) { c.CMT.ReadWriteRatio = 0 }},
		{"unknown mode", func(c *Config) { c.Inlining.Mode = "bogus" }},
	} {
		tbl := tbl
		t.Run(tbl.name, func(t *testing.T) {
			c := Default()
			tbl.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseByteSize(t *testing.T) {
	n, err := ParseByteSize("64GiB")
	require.NoError(t, err)
	assert.Equal(t, int64(64)<<30, n)

	_, err = ParseByteSize("not-a-size")
	assert.Error(t, err)
}

func TestParseYAMLOverridesDefaults(t *testing.T) {
	raw := []byte(`
capacity_bytes: 1073741824
inlining:
  mode: ml_bandit
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(1073741824), cfg.CapacityBytes)
	assert.Equal(t, ModeMLBandit, cfg.Inlining.Mode)
	// untouched fields keep Default()'s values
	assert.Equal(t, Default().Flash.PageSize, cfg.Flash.PageSize)
}

func TestCMTEntryCapacitySplitsByRatio(t *testing.T) {
	c := Default()
	c.CMT.ReadWriteRatio = 1.0
	read, write := c.CMTEntryCapacity()
	assert.InDelta(t, read, write, 1)
}
