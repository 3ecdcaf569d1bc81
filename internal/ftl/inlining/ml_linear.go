package inlining

import "math/rand"

// LinearRegression is an online linear-regression policy over three
// features: value_size/entry_size, total_size/(16*entry_size), and
// 1-cmt_hit_rate (spec §4.5).
type LinearRegression struct {
	entrySize      int
	warmup         int64
	lr             float64
	retrainInterval int64

	weights [3]float64
	bias    float64

	rng            *rand.Rand
	feedbackCount  int64
	trained        bool
	buffer         []trainExample
	stepsSinceTrain int64
}

type trainExample struct {
	features [3]float64
	reward   float64
}

// NewLinearRegression constructs an ML-Linear policy (spec §4.5, §6
// defaults: warmup = profiler_warmup, retrain_interval = profiler_interval).
func NewLinearRegression(entrySize int, warmup, retrainInterval int64) *LinearRegression {
	return &LinearRegression{
		entrySize:       entrySize,
		warmup:          warmup,
		lr:              0.01,
		retrainInterval: retrainInterval,
		rng:             rand.New(rand.NewSource(42)),
	}
}

func (p *LinearRegression) extractFeatures(ctx Context) [3]float64 {
	total := float64(inlineFrameTotal(ctx))
	es := float64(p.entrySize)
	return [3]float64{
		float64(ctx.ValueSize) / es,
		total / (es * 16),
		1.0 - ctx.CMTHitRate,
	}
}

// ShouldInline returns a uniform-random 50/50 decision (deterministic RNG,
// seed 42) until warmup feedbacks are seen, then the learned linear score
// bias + w.f > 0 (spec §4.5).
func (p *LinearRegression) ShouldInline(ctx Context) bool {
	if !p.trained {
		return p.rng.Float64() < 0.5
	}
	features := p.extractFeatures(ctx)
	score := p.bias
	for i, f := range features {
		score += p.weights[i] * f
	}
	return score > 0.0
}

// Update is a no-op; ML-Linear learns only from Feedback.
func (p *LinearRegression) Update(Context) {}

// Feedback computes the reward for the completed GET, buffers the
// training example, and retrains once warmup feedbacks have accumulated
// (and every retrain_interval feedbacks thereafter) — spec §4.5.
func (p *LinearRegression) Feedback(ctx Context, wasInline bool, flashReads int) {
	var reward float64
	if wasInline {
		if flashReads <= 1 {
			reward = 1.0
		} else {
			reward = -0.5
		}
	} else {
		if flashReads >= 2 {
			reward = -1.0
		} else {
			reward = 0.5
		}
	}

	features := p.extractFeatures(ctx)
	p.buffer = append(p.buffer, trainExample{features: features, reward: reward})
	p.feedbackCount++
	p.stepsSinceTrain++

	if !p.trained && p.feedbackCount >= p.warmup {
		p.train()
		p.trained = true
	} else if p.trained && p.stepsSinceTrain >= p.retrainInterval {
		p.train()
	}
}

// train performs one SGD pass over the most recent retrain_interval
// buffered examples (or the whole buffer, pre-training) — spec §4.5.
func (p *LinearRegression) train() {
	batch := p.buffer
	if p.trained && int64(len(p.buffer)) > p.retrainInterval {
		batch = p.buffer[int64(len(p.buffer))-p.retrainInterval:]
	}
	for _, ex := range batch {
		pred := p.bias
		for i, f := range ex.features {
			pred += p.weights[i] * f
		}
		errTerm := ex.reward - pred
		p.bias += p.lr * errTerm
		for i, f := range ex.features {
			p.weights[i] += p.lr * errTerm * f
		}
	}
	p.stepsSinceTrain = 0
}
