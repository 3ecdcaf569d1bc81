package inlining

// Baseline is the TurboHash-style policy: inline only if the value fits in
// the PPA field (spec §4.5).
type Baseline struct {
	NoFeedback
	PPASize int
}

// NewBaseline constructs a Baseline policy with the given PPA size (spec §6
// default 8 bytes).
func NewBaseline(ppaSize int) *Baseline {
	return &Baseline{PPASize: ppaSize}
}

// ShouldInline returns true iff value_size <= ppa_size.
func (b *Baseline) ShouldInline(ctx Context) bool {
	return ctx.ValueSize <= b.PPASize
}

// Update is a no-op; Baseline does no profiling.
func (b *Baseline) Update(Context) {}
