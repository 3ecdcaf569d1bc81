// Package metrics holds the counters, read histogram, and latency samples
// the FTL core reports, per spec.md §3 ("Metrics") and §6 ("Reported
// metrics").
package metrics

import "sort"

// PageType distinguishes translation-page flash I/O from data-page flash
// I/O for the purposes of the tp_reads/data_reads counters (spec §3).
type PageType int

const (
	// DataPage identifies a flash page holding a value's out-of-line bytes.
	DataPage PageType = iota
	// TranslationPage identifies a flash page holding one GMD translation
	// page's frames.
	TranslationPage
)

// Metrics accumulates the monotonic counters and histograms described in
// spec.md §3. It is owned exclusively by one KVSSD (spec §5): there is no
// internal locking because there is no concurrent access.
type Metrics struct {
	TPReads         int64
	DataReads       int64
	FlashWrites     int64
	FlashErases     int64
	CMTHits         int64
	CMTMisses       int64
	InlineEntries   int64
	RegularEntries  int64
	InlineToRegular int64
	GCInvocations   int64
	GCPagesCopied   int64
	HostWrites      int64
	TotalPuts       int64
	TotalGets       int64
	TotalDeletes    int64

	// ReadsByFlashCount is the histogram reads_by_flash_count[k] = #GETs
	// that issued exactly k flash reads.
	ReadsByFlashCount map[int]int64

	// latenciesUs holds one entry per completed GET, in microseconds.
	latenciesUs []float64

	// requestFlashReads is the per-request scratch counter, reset by
	// BeginRequest and consumed by EndGetRequest.
	requestFlashReads int
}

// New returns a zeroed Metrics instance with the read histogram
// pre-seeded the way the Python original does (0, 1, 2 are the common
// cases; other keys are created lazily).
func New() *Metrics {
	return &Metrics{
		ReadsByFlashCount: map[int]int64{0: 0, 1: 0, 2: 0},
	}
}

// BeginRequest resets the per-request flash-read scratch counter. Called at
// the start of every GET (spec §4.6).
func (m *Metrics) BeginRequest() {
	m.requestFlashReads = 0
}

// RecordFlashRead charges one flash read of the given type to both the
// appropriate counter and the in-flight request's scratch counter. Called
// by Flash.ReadPage (spec §4.1).
func (m *Metrics) RecordFlashRead(pt PageType) {
	m.requestFlashReads++
	if pt == TranslationPage {
		m.TPReads++
	} else {
		m.DataReads++
	}
}

// EndGetRequest records the completed request's flash-read count into the
// histogram and appends its latency (reads * readLatencyUs) to the latency
// sample list. Called once per GET, whether it hit, missed, or found
// nothing (spec §4.6).
func (m *Metrics) EndGetRequest(readLatencyUs float64) {
	count := m.requestFlashReads
	m.ReadsByFlashCount[count]++
	m.latenciesUs = append(m.latenciesUs, float64(count)*readLatencyUs)
}

// TotalFlashReads is tp_reads + data_reads (spec §6).
func (m *Metrics) TotalFlashReads() int64 {
	return m.TPReads + m.DataReads
}

// TotalOps is total_puts + total_gets + total_deletes.
func (m *Metrics) TotalOps() int64 {
	return m.TotalPuts + m.TotalGets + m.TotalDeletes
}

// CMTHitRate is cmt_hits / (cmt_hits + cmt_misses), or 0 if there were no
// lookups yet.
func (m *Metrics) CMTHitRate() float64 {
	total := m.CMTHits + m.CMTMisses
	if total == 0 {
		return 0
	}
	return float64(m.CMTHits) / float64(total)
}

// InlineRatio is inline_entries / (inline_entries + regular_entries), or 0
// if there are no live entries yet.
func (m *Metrics) InlineRatio() float64 {
	total := m.InlineEntries + m.RegularEntries
	if total == 0 {
		return 0
	}
	return float64(m.InlineEntries) / float64(total)
}

// ReadsWithOneOrFewer is the fraction of GETs that completed in <= 1 flash
// read (spec §6).
func (m *Metrics) ReadsWithOneOrFewer() float64 {
	var total int64
	for _, v := range m.ReadsByFlashCount {
		total += v
	}
	if total == 0 {
		return 0
	}
	good := m.ReadsByFlashCount[0] + m.ReadsByFlashCount[1]
	return float64(good) / float64(total)
}

// WAF is flash_writes / host_writes, the write amplification factor (spec
// §6, §8 invariant 7: WAF >= 1 after any non-empty workload).
func (m *Metrics) WAF() float64 {
	if m.HostWrites == 0 {
		return 0
	}
	return float64(m.FlashWrites) / float64(m.HostWrites)
}

// Percentile returns the p-th percentile (0-100) of recorded GET
// latencies, using nearest-rank over a sorted copy of the samples. Returns
// 0 if no GET has completed yet.
func (m *Metrics) Percentile(p float64) float64 {
	n := len(m.latenciesUs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, m.latenciesUs)
	sort.Float64s(sorted)

	rank := int(p/100*float64(n) + 0.5)
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

// P50 is the median GET latency in microseconds.
func (m *Metrics) P50() float64 { return m.Percentile(50) }

// P99 is the 99th-percentile GET latency in microseconds.
func (m *Metrics) P99() float64 { return m.Percentile(99) }

// P999 is the 99.9th-percentile GET latency in microseconds.
func (m *Metrics) P999() float64 { return m.Percentile(99.9) }

// AvgLatency is the arithmetic mean of recorded GET latencies.
func (m *Metrics) AvgLatency() float64 {
	if len(m.latenciesUs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range m.latenciesUs {
		sum += v
	}
	return sum / float64(len(m.latenciesUs))
}

// LatencyPoint is one sample of the CDF: a latency value and the fraction
// of requests at or below it.
type LatencyPoint struct {
	LatencyUs float64
	CDF       float64
}

// LatencyCDF samples the empirical CDF of GET latencies at `buckets`
// evenly spaced points (spec §6: "latency_cdf(buckets) = sampled (latency,
// cdf) pairs").
func (m *Metrics) LatencyCDF(buckets int) []LatencyPoint {
	n := len(m.latenciesUs)
	if n == 0 || buckets <= 0 {
		return nil
	}
	sorted := make([]float64, n)
	copy(sorted, m.latenciesUs)
	sort.Float64s(sorted)

	points := make([]LatencyPoint, 0, buckets)
	for i := 1; i <= buckets; i++ {
		idx := int(float64(i) / float64(buckets) * float64(n))
		if idx < 1 {
			idx = 1
		}
		if idx > n {
			idx = n
		}
		points = append(points, LatencyPoint{
			LatencyUs: sorted[idx-1],
			CDF:       float64(idx) / float64(n),
		})
	}
	return points
}

// RequestFlashReads exposes the in-flight per-request scratch counter,
// primarily so KVSSD can report a GET's flash-read count to the inlining
// policy's Feedback hook without re-deriving it.
func (m *Metrics) RequestFlashReads() int {
	return m.requestFlashReads
}
