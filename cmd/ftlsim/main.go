// Command ftlsim drives the KVSSD emulator core against a synthetic
// workload or a replayed trace file and prints a per-mode metrics
// comparison (supplemented from original_source/main.py's argparse-based
// CLI, translated to the standard library's flag package per the rest of
// this corpus, which carries no third-party CLI framework).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ftlsim/kvssd/internal/config"
	"github.com/ftlsim/kvssd/internal/ftl"
	"github.com/ftlsim/kvssd/internal/ftllog"
	"github.com/ftlsim/kvssd/internal/trace"
	"github.com/ftlsim/kvssd/internal/workload"
)

var allModes = []string{"baseline", "kvpack_s", "kvpack_d", "ml_linear", "ml_bandit"}

func main() {
	if len(os.Args) < 2 {
		runSynthetic(synthArgs{workload: "all", numKeys: 10000, numOps: 50000, readRatio: 0.5, modes: allModes})
		return
	}

	switch os.Args[1] {
	case "synthetic":
		cmdSynthetic(os.Args[2:])
	case "trace":
		cmdTrace(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "ftlsim: unknown command %q (want \"synthetic\" or \"trace\")\n", os.Args[1])
		os.Exit(2)
	}
}

type synthArgs struct {
	workload  string
	numKeys   int
	numOps    int
	readRatio float64
	modes     []string
}

func cmdSynthetic(args []string) {
	fs := newFlagSet("synthetic")
	workloadName := fs.String("workload", "all", "workload profile name, or \"all\"")
	numKeys := fs.Int("num-keys", 10000, "number of distinct keys")
	numOps := fs.Int("num-ops", 50000, "number of mixed operations after population")
	readRatio := fs.Float64("read-ratio", 0.5, "fraction of mixed ops that are reads")
	modes := fs.String("modes", "", "comma-separated modes (default: all)")
	mustParse(fs, args)

	runSynthetic(synthArgs{
		workload:  *workloadName,
		numKeys:   *numKeys,
		numOps:    *numOps,
		readRatio: *readRatio,
		modes:     splitModes(*modes),
	})
}

func runSynthetic(a synthArgs) {
	names := []string{a.workload}
	if a.workload == "all" {
		names = workload.ProfileNames()
	}

	baseResults := make(map[string]map[string]*ftl.KVSSD)
	for _, name := range names {
		profile := workload.Profiles[name]
		label := fmt.Sprintf("Workload: %s (key=%dB, value=%dB, source=%s)", name, profile.KeySize, profile.ValueSize, profile.Source)

		results := make(map[string]*ftl.KVSSD)
		for _, mode := range a.modes {
			ssd, err := buildDevice(mode, a.numKeys)
			if err != nil {
				fatalf("building device for mode %s: %v", mode, err)
			}
			ops := workload.Synthetic(name, a.numKeys, a.numOps, a.readRatio, 0.0, 42)
			replay(ssd, ops)
			results[mode] = ssd
		}
		baseResults[name] = results
		printComparison(label, results, a.modes)
	}

	printFlashReadReduction(names, baseResults, a.modes)
}

func cmdTrace(args []string) {
	fs := newFlagSet("trace")
	maxOps := fs.Int("max-ops", 0, "limit ops replayed (0 = all)")
	modes := fs.String("modes", "", "comma-separated modes (default: all)")
	mustParse(fs, args)

	if fs.NArg() < 1 {
		fatalf("trace: missing trace_path argument")
	}
	tracePath := fs.Arg(0)

	f, err := os.Open(tracePath)
	if err != nil {
		fatalf("opening trace file: %v", err)
	}
	defer f.Close()

	ops, err := trace.Load(f, *maxOps)
	if err != nil {
		fatalf("loading trace: %v", err)
	}

	modeList := splitModes(*modes)
	results := make(map[string]*ftl.KVSSD)
	for _, mode := range modeList {
		ftllog.Log.Infof("running %s...", mode)
		ssd, err := buildDevice(mode, 10000)
		if err != nil {
			fatalf("building device for mode %s: %v", mode, err)
		}
		replay(ssd, ops)
		results[mode] = ssd
	}

	printComparison(fmt.Sprintf("Trace: %s", tracePath), results, modeList)
}

// buildDevice mirrors original_source/main.py's run_synthetic: a small
// config with the CMT sized so the working set is ~10x CMT capacity, and a
// profiling schedule proportional to the key-pool size.
func buildDevice(mode string, numKeys int) (*ftl.KVSSD, error) {
	cfg := config.Small()

	desiredReadEntries := int64(numKeys / 10)
	desiredTotalEntries := desiredReadEntries * 2
	desiredBudget := desiredTotalEntries * cfg.Mapping.EntrySize
	cfg.CMT.BudgetRatio = float64(desiredBudget) / float64(cfg.CapacityBytes)

	cfg.Inlining.Mode = config.Mode(mode)
	cfg.Inlining.ProfilerWarmup = int64(numKeys / 10)
	cfg.Inlining.ProfilerInterval = int64(numKeys / 10)

	return ftl.New(cfg)
}

func replay(ssd *ftl.KVSSD, ops []workload.Operation) {
	for _, op := range ops {
		switch op.Type {
		case workload.Put:
			_ = ssd.Put(op.Key, op.ValueSize)
		case workload.Get:
			ssd.Get(op.Key)
		case workload.Delete:
			ssd.Delete(op.Key)
		}
	}
}

func splitModes(s string) []string {
	if s == "" {
		return allModes
	}
	return strings.Split(s, ",")
}

func printComparison(label string, results map[string]*ftl.KVSSD, modes []string) {
	bar := strings.Repeat("=", 70)
	fmt.Printf("\n%s\n%s\n%s\n", bar, label, bar)

	header := fmt.Sprintf("  %-22s", "metric")
	for _, mode := range modes {
		header += fmt.Sprintf(" %12s", mode)
	}
	fmt.Println(header)
	fmt.Printf("  %s%s\n", strings.Repeat("-", 22), strings.Repeat(" "+strings.Repeat("-", 12), len(modes)))

	type row struct {
		label string
		vals  []string
	}
	rows := []row{
		{"flash reads", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprint(m.Metrics().TotalFlashReads()) })},
		{"  tp reads", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprint(m.Metrics().TPReads) })},
		{"  data reads", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprint(m.Metrics().DataReads) })},
		{"flash writes", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprint(m.Metrics().FlashWrites) })},
		{"CMT hit rate", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprintf("%.4f", m.Metrics().CMTHitRate()) })},
		{"inline ratio", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprintf("%.4f", m.Metrics().InlineRatio()) })},
		{"reads<=1 flash", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprintf("%.4f", m.Metrics().ReadsWithOneOrFewer()) })},
		{"conversions", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprint(m.Metrics().InlineToRegular) })},
		{"WAF", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprintf("%.2f", m.Metrics().WAF()) })},
		{"avg latency (us)", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprintf("%.1f", m.Metrics().AvgLatency()) })},
		{"p50 latency (us)", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprintf("%.1f", m.Metrics().P50()) })},
		{"p99 latency (us)", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprintf("%.1f", m.Metrics().P99()) })},
		{"p99.9 latency (us)", mapStrings(modes, results, func(m *ftl.KVSSD) string { return fmt.Sprintf("%.1f", m.Metrics().P999()) })},
	}

	for _, r := range rows {
		line := fmt.Sprintf("  %-22s", r.label)
		for _, v := range r.vals {
			line += fmt.Sprintf(" %12s", v)
		}
		fmt.Println(line)
	}
}

func mapStrings(modes []string, results map[string]*ftl.KVSSD, f func(*ftl.KVSSD) string) []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = f(results[m])
	}
	return out
}

func printFlashReadReduction(workloads []string, results map[string]map[string]*ftl.KVSSD, modes []string) {
	hasBaseline := false
	for _, m := range modes {
		if m == "baseline" {
			hasBaseline = true
		}
	}
	if len(workloads) <= 1 || !hasBaseline {
		return
	}

	var nonBase []string
	for _, m := range modes {
		if m != "baseline" {
			nonBase = append(nonBase, m)
		}
	}

	bar := strings.Repeat("=", 70)
	fmt.Printf("\n%s\nFlash read reduction vs baseline\n%s\n", bar, bar)
	header := fmt.Sprintf("  %-12s", "workload")
	for _, m := range nonBase {
		header += fmt.Sprintf(" %12s", m)
	}
	fmt.Println(header)
	fmt.Printf("  %s%s\n", strings.Repeat("-", 12), strings.Repeat(" "+strings.Repeat("-", 12), len(nonBase)))

	for _, wl := range workloads {
		base := results[wl]["baseline"].Metrics().TotalFlashReads()
		if base <= 0 {
			continue
		}
		line := fmt.Sprintf("  %-12s", wl)
		for _, m := range nonBase {
			reduction := 1.0 - float64(results[wl][m].Metrics().TotalFlashReads())/float64(base)
			line += fmt.Sprintf(" %11.1f%%", reduction*100)
		}
		fmt.Println(line)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ftlsim: "+format+"\n", args...)
	os.Exit(1)
}
