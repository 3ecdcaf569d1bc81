package inlining

import "math/rand"

const banditNumBins = 8

type armStats struct {
	sum   float64
	count int64
}

type binStats struct {
	inline  armStats
	regular armStats
}

// EpsilonGreedy is a contextual-bandit policy with epsilon-greedy
// exploration over a per-frame-count-bin reward table (spec §4.5).
type EpsilonGreedy struct {
	entrySize int
	warmup    int64
	epsilon   float64
	decay     float64

	iosSeen int64
	rng     *rand.Rand
	bins    map[int]*binStats
}

// NewEpsilonGreedy constructs an ML-Bandit policy (spec §4.5, §6 defaults:
// epsilon0=0.2, decay=0.999, num_bins=8).
func NewEpsilonGreedy(entrySize int, warmup int64) *EpsilonGreedy {
	return &EpsilonGreedy{
		entrySize: entrySize,
		warmup:    warmup,
		epsilon:   0.2,
		decay:     0.999,
		rng:       rand.New(rand.NewSource(42)),
		bins:      make(map[int]*binStats),
	}
}

func (p *EpsilonGreedy) bin(ctx Context) int {
	frames := framesFor(inlineFrameTotal(ctx), p.entrySize)
	if frames > banditNumBins {
		frames = banditNumBins
	}
	return frames - 1
}

// ShouldInline explores uniformly at random during warmup; afterward
// picks the higher-mean-reward arm for the context's bin, with epsilon
// probability of a random coin flip, and a random 50/50 tie-break when the
// bin has no samples yet (spec §4.5).
func (p *EpsilonGreedy) ShouldInline(ctx Context) bool {
	p.iosSeen++
	if p.iosSeen < p.warmup {
		return p.rng.Float64() < 0.5
	}

	stats, ok := p.bins[p.bin(ctx)]
	if !ok {
		return p.rng.Float64() < 0.5
	}

	if p.rng.Float64() < p.epsilon {
		return p.rng.Float64() < 0.5
	}

	inlineAvg := mean(stats.inline)
	regularAvg := mean(stats.regular)
	return inlineAvg > regularAvg
}

func mean(a armStats) float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Update multiplicatively decays epsilon on every PUT (spec §4.5).
func (p *EpsilonGreedy) Update(Context) {
	p.epsilon *= p.decay
	if p.epsilon < 0.01 {
		p.epsilon = 0.01
	}
}

// Feedback records -flash_reads as the observed reward for the arm that
// was actually played, in the context's bin (spec §4.5).
func (p *EpsilonGreedy) Feedback(ctx Context, wasInline bool, flashReads int) {
	b := p.bin(ctx)
	stats, ok := p.bins[b]
	if !ok {
		stats = &binStats{}
		p.bins[b] = stats
	}
	reward := -float64(flashReads)
	if wasInline {
		stats.inline.sum += reward
		stats.inline.count++
	} else {
		stats.regular.sum += reward
		stats.regular.count++
	}
}
