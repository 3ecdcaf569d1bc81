package inlining

import "github.com/ftlsim/kvssd/internal/ftlerr"

// Mode names one of the five supported policy variants (spec §4.5).
type Mode string

// Supported inlining modes.
const (
	ModeBaseline Mode = "baseline"
	ModeKVPackS  Mode = "kvpack_s"
	ModeKVPackD  Mode = "kvpack_d"
	ModeMLLinear Mode = "ml_linear"
	ModeMLBandit Mode = "ml_bandit"
)

// Params bundles the construction arguments every factory path needs,
// sourced from config.Config (spec §6).
type Params struct {
	Mode             Mode
	EntrySize        int
	PPASize          int
	ProfilerWarmup   int64
	ProfilerInterval int64
}

// New constructs the Policy named by p.Mode, returning a wrapped
// ftlerr.UnknownMode if the name isn't recognized — a fatal configuration
// error raised at construction (spec §4.5, §7).
func New(p Params) (Policy, error) {
	switch p.Mode {
	case ModeBaseline:
		return NewBaseline(p.PPASize), nil
	case ModeKVPackS:
		return NewKVPackS(p.EntrySize, p.ProfilerWarmup), nil
	case ModeKVPackD:
		return NewKVPackD(p.EntrySize, p.ProfilerWarmup, p.ProfilerInterval), nil
	case ModeMLLinear:
		return NewLinearRegression(p.EntrySize, p.ProfilerWarmup, p.ProfilerInterval), nil
	case ModeMLBandit:
		return NewEpsilonGreedy(p.EntrySize, p.ProfilerWarmup), nil
	default:
		return nil, ftlerr.WrapUnknownMode(string(p.Mode))
	}
}
