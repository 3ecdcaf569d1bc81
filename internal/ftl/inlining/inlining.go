// Package inlining implements the family of value-inlining policies (spec
// §4.5): baseline, KVPack-S, KVPack-D, an online linear-regression
// predictor, and an epsilon-greedy contextual bandit. All five share one
// capability contract so the orchestrator can hold a single Policy value
// regardless of mode.
package inlining

// Context carries the per-PUT decision inputs a policy needs (spec §4.5
// "InlineContext").
type Context struct {
	KeySize       int
	ValueSize     int
	TPUtilization float64
	TPInlineRatio float64
	CMTHitRate    float64
	Epoch         int64
}

// Policy is the shared contract every inlining variant implements (spec
// §4.5, §9 "Polymorphic policies"). Feedback is optional in spirit — most
// variants embed NoFeedback for a no-op default.
type Policy interface {
	// ShouldInline decides whether the current PUT should be stored inline.
	ShouldInline(ctx Context) bool
	// Update is called on every PUT with the pre-decision context, letting
	// profiling policies observe the stream regardless of their decision.
	Update(ctx Context)
	// Feedback is called on every GET that reached flash, after the
	// request completes, reporting whether the entry was inline and how
	// many flash reads the request took.
	Feedback(ctx Context, wasInline bool, flashReads int)
}

// NoFeedback provides the no-op Feedback default for policies that don't
// learn from GET outcomes (Baseline, KVPack-S, KVPack-D).
type NoFeedback struct{}

// Feedback is a no-op.
func (NoFeedback) Feedback(Context, bool, int) {}

// inlineFrameTotal is the frame-accounting size of a would-be inline entry:
// 8B hash + 2B key length + 2B value length, prepended to the payload
// (spec §3 "MappingEntry").
func inlineFrameTotal(ctx Context) int {
	return 12 + ctx.KeySize + ctx.ValueSize
}

func framesFor(total int, entrySize int) int {
	frames := (total + entrySize - 1) / entrySize
	if frames < 1 {
		return 1
	}
	return frames
}
