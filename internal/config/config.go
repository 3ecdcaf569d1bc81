// Package config builds the derived sizing the FTL core needs (frames per
// translation page, hash mask, CMT entry capacity, ...) from a small set of
// user-facing options, mirroring spec.md §6's configuration table.
package config

import (
	"github.com/docker/go-units"
	"github.com/pkg/errors"
)

// Flash holds the physical NAND parameters (spec §6, group "flash").
type Flash struct {
	PageSize       int64   `yaml:"page_size"`
	PagesPerBlock  int     `yaml:"pages_per_block"`
	ReadLatencyUs  float64 `yaml:"read_latency_us"`
}

// Mapping holds the translation-layer parameters (spec §6, group "mapping").
type Mapping struct {
	EntrySize     int64 `yaml:"entry_size"`
	HashBits      uint  `yaml:"hash_bits"`
	MaxRetry      int   `yaml:"max_retry"`
	PPASize       int   `yaml:"ppa_size"`
	DataAlignment int64 `yaml:"data_alignment"`
}

// CMT holds the cached mapping table sizing parameters (spec §6, group
// "cmt").
type CMT struct {
	BudgetRatio    float64 `yaml:"budget_ratio"`
	ReadWriteRatio float64 `yaml:"read_write_ratio"`
}

// Mode names the inlining policy variant (spec §4.5).
type Mode string

// Supported inlining modes.
const (
	ModeBaseline Mode = "baseline"
	ModeKVPackS  Mode = "kvpack_s"
	ModeKVPackD  Mode = "kvpack_d"
	ModeMLLinear Mode = "ml_linear"
	ModeMLBandit Mode = "ml_bandit"
)

// Inlining holds the policy selection and profiling schedule (spec §6,
// group "inlining").
type Inlining struct {
	Mode              Mode  `yaml:"mode"`
	ProfilerWarmup    int64 `yaml:"profiler_warmup"`
	ProfilerInterval  int64 `yaml:"profiler_interval"`
}

// Config is the full, user-facing configuration for one KVSSD instance.
// CapacityBytes and the byte-valued fields under Flash/Mapping may be set
// programmatically or parsed from human-readable strings with
// ParseByteSize (e.g. "64GiB") the way docker/go-units formats them
// elsewhere in the ecosystem.
type Config struct {
	CapacityBytes int64    `yaml:"capacity_bytes"`
	Flash         Flash    `yaml:"flash"`
	Mapping       Mapping  `yaml:"mapping"`
	CMT           CMT      `yaml:"cmt"`
	Inlining      Inlining `yaml:"inlining"`
}

// Default returns the spec's default configuration (spec §6 defaults
// table): 64 GiB capacity, 16 KiB pages, 256 pages/block, 32 B entries,
// kvpack_s inlining with a 1M-PUT warmup.
func Default() Config {
	return Config{
		CapacityBytes: 64 * units.GiB,
		Flash: Flash{
			PageSize:      16 * units.KiB,
			PagesPerBlock: 256,
			ReadLatencyUs: 45.0,
		},
		Mapping: Mapping{
			EntrySize:     32,
			HashBits:      27,
			MaxRetry:      8,
			PPASize:       8,
			DataAlignment: 512,
		},
		CMT: CMT{
			BudgetRatio:    0.005,
			ReadWriteRatio: 1.0,
		},
		Inlining: Inlining{
			Mode:             ModeKVPackS,
			ProfilerWarmup:   1_000_000,
			ProfilerInterval: 100_000,
		},
	}
}

// Small returns a development-sized config (mirrors the Python original's
// small_config()): 256 MiB capacity with a much shorter profiling schedule
// so tests don't need millions of PUTs to see a trained policy.
func Small() Config {
	c := Default()
	c.CapacityBytes = 256 * units.MiB
	c.Inlining.ProfilerWarmup = 1000
	c.Inlining.ProfilerInterval = 500
	return c
}

// GC returns a tight config that forces garbage collection to trigger with
// modest workloads (mirrors the Python original's gc_config()): 2 MiB
// capacity, 16 pages/block, and a short profiling schedule.
func GC() Config {
	c := Default()
	c.CapacityBytes = 2 * units.MiB
	c.Flash.PageSize = 16 * units.KiB
	c.Flash.PagesPerBlock = 16
	c.Inlining.ProfilerWarmup = 50
	c.Inlining.ProfilerInterval = 50
	return c
}

// ParseByteSize parses a human-readable byte size ("64GiB", "512", "16KB")
// using the same units grammar docker/go-units uses elsewhere in the
// container ecosystem.
func ParseByteSize(s string) (int64, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing byte size %q", s)
	}
	return n, nil
}

// FramesPerTP is frames_per_tp = page_size / entry_size.
func (c Config) FramesPerTP() int64 {
	return c.Flash.PageSize / c.Mapping.EntrySize
}

// MaxKVPairs is capacity_bytes / data_alignment.
func (c Config) MaxKVPairs() int64 {
	return c.CapacityBytes / c.Mapping.DataAlignment
}

// NumTranslationPages is max_kv_pairs / frames_per_tp.
func (c Config) NumTranslationPages() int64 {
	return c.MaxKVPairs() / c.FramesPerTP()
}

// HashMask is (1 << hash_bits) - 1.
func (c Config) HashMask() uint64 {
	return (uint64(1) << c.Mapping.HashBits) - 1
}

// CMTEntryCapacity splits the CMT's byte budget into read/write entry
// counts per spec §6 ("cmt.read_write_ratio"). The read count is what the
// core's CMT (a read cache, §4.3) actually sizes itself with; the write
// count is retained for parity with the original design's write-cache
// budget even though the read-only CMT described in spec §4.3 does not use
// it.
func (c Config) CMTEntryCapacity() (read, write int64) {
	budget := int64(float64(c.CapacityBytes) * c.CMT.BudgetRatio)
	total := budget / c.Mapping.EntrySize
	ratio := c.CMT.ReadWriteRatio
	read = int64(float64(total) * ratio / (1 + ratio))
	write = total - read
	return read, write
}

// TotalPages is capacity_bytes / page_size (spec §4.1).
func (c Config) TotalPages() int64 {
	return c.CapacityBytes / c.Flash.PageSize
}

// TotalBlocks is total_pages / pages_per_block (spec §4.1).
func (c Config) TotalBlocks() int64 {
	return c.TotalPages() / int64(c.Flash.PagesPerBlock)
}

// Validate rejects configurations that would otherwise cause a
// divide-by-zero or nonsensical derived size deep inside Flash/GMD. The
// Python original has no equivalent check; a Go library shaped like this
// one should not let bad configuration surface as an integer-divide panic.
func (c Config) Validate() error {
	switch {
	case c.CapacityBytes <= 0:
		return errors.New("config: capacity_bytes must be positive")
	case c.Flash.PageSize <= 0:
		return errors.New("config: flash.page_size must be positive")
	case c.Flash.PagesPerBlock <= 0:
		return errors.New("config: flash.pages_per_block must be positive")
	case c.Mapping.EntrySize <= 0:
		return errors.New("config: mapping.entry_size must be positive")
	case c.Mapping.HashBits == 0 || c.Mapping.HashBits > 63:
		return errors.New("config: mapping.hash_bits must be in [1, 63]")
	case c.Mapping.MaxRetry <= 0:
		return errors.New("config: mapping.max_retry must be positive")
	case c.Mapping.DataAlignment <= 0:
		return errors.New("config: mapping.data_alignment must be positive")
	case c.CMT.BudgetRatio < 0:
		return errors.New("config: cmt.budget_ratio must be non-negative")
	case c.CMT.ReadWriteRatio <= 0:
		return errors.New("config: cmt.read_write_ratio must be positive")
	case c.TotalPages() <= 0:
		return errors.New("config: derived total_pages is non-positive; capacity too small for page_size")
	case c.TotalBlocks() <= 0:
		return errors.New("config: derived total_blocks is non-positive; capacity too small for pages_per_block")
	case c.FramesPerTP() <= 0:
		return errors.New("config: derived frames_per_tp is non-positive; entry_size too large for page_size")
	case c.NumTranslationPages() <= 0:
		return errors.New("config: derived num_translation_pages is non-positive")
	}
	switch c.Inlining.Mode {
	case ModeBaseline, ModeKVPackS, ModeKVPackD, ModeMLLinear, ModeMLBandit:
	default:
		return errors.Errorf("config: unknown inlining.mode %q", c.Inlining.Mode)
	}
	return nil
}
