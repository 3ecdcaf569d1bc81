// Package mapping implements the Global Mapping Directory (GMD) of
// translation pages, with quadratic-probing addressing and per-page frame
// accounting (spec.md §3 "MappingEntry"/"TranslationPage"/"GMD", §4.2).
package mapping

import (
	"hash/fnv"

	"github.com/ftlsim/kvssd/internal/ftl/flash"
)

// KeyHash is the masked, truncated hash identity of a key (spec §3).
type KeyHash uint64

// ComputeKeyHash hashes key with FNV-1a (any stable hash suffices per spec
// §3) and masks it to the configured hash width.
func ComputeKeyHash(key []byte, mask uint64) KeyHash {
	h := fnv.New64a()
	_, _ = h.Write(key)
	return KeyHash(h.Sum64() & mask)
}

// sentinelDataPageID is the data_page_id value that marks an inline entry
// (spec §3: "data_page_id (flash page id; sentinel −1 iff inline)").
const sentinelDataPageID = flash.PageID(-1)

// MappingEntry is one key_hash -> placement record held by a
// TranslationPage (spec §3).
type MappingEntry struct {
	KeyHash     KeyHash
	KeySize     int
	ValueSize   int
	IsInline    bool
	DataPageID  flash.PageID // sentinelDataPageID iff IsInline
	FramesUsed  int          // >= 1; == 1 for regular entries
}

// NewInlineEntry builds an inline MappingEntry whose FramesUsed is the
// caller-supplied frame count.
func NewInlineEntry(kh KeyHash, keySize, valueSize, frames int) MappingEntry {
	return MappingEntry{
		KeyHash:    kh,
		KeySize:    keySize,
		ValueSize:  valueSize,
		IsInline:   true,
		DataPageID: sentinelDataPageID,
		FramesUsed: frames,
	}
}

// NewRegularEntry builds a regular (out-of-line) MappingEntry.
func NewRegularEntry(kh KeyHash, keySize, valueSize int, dataPage flash.PageID) MappingEntry {
	return MappingEntry{
		KeyHash:    kh,
		KeySize:    keySize,
		ValueSize:  valueSize,
		IsInline:   false,
		DataPageID: dataPage,
		FramesUsed: 1,
	}
}

// TranslationPage holds a unique key_hash -> MappingEntry mapping inside
// one flash-page-sized frame budget (spec §3, §4.2).
type TranslationPage struct {
	TPID         int64
	TotalFrames  int64
	UsedFrames   int64
	NumInline    int64
	FlashPageID  flash.PageID

	entries []KeyHash // insertion order, for deterministic EvictOneInline
	byHash  map[KeyHash]MappingEntry
}

// NewTranslationPage constructs an empty TP with the given frame capacity.
func NewTranslationPage(tpID int64, totalFrames int64) *TranslationPage {
	return &TranslationPage{
		TPID:        tpID,
		TotalFrames: totalFrames,
		FlashPageID: sentinelDataPageID,
		byHash:      make(map[KeyHash]MappingEntry),
	}
}

// FreeFrames is total_frames - used_frames.
func (tp *TranslationPage) FreeFrames() int64 {
	return tp.TotalFrames - tp.UsedFrames
}

// NumEntries is the number of live entries in this page.
func (tp *TranslationPage) NumEntries() int {
	return len(tp.byHash)
}

// Utilization is used_frames / total_frames (0 if total_frames is 0).
func (tp *TranslationPage) Utilization() float64 {
	if tp.TotalFrames == 0 {
		return 0
	}
	return float64(tp.UsedFrames) / float64(tp.TotalFrames)
}

// InlineRatio is num_inline / |entries| (0 if empty, per spec §3).
func (tp *TranslationPage) InlineRatio() float64 {
	if len(tp.byHash) == 0 {
		return 0
	}
	return float64(tp.NumInline) / float64(len(tp.byHash))
}

// HasSpace reports whether framesNeeded more frames fit in the page.
func (tp *TranslationPage) HasSpace(framesNeeded int64) bool {
	return tp.FreeFrames() >= framesNeeded
}

// Find returns the entry for keyHash and whether it was present.
func (tp *TranslationPage) Find(kh KeyHash) (MappingEntry, bool) {
	e, ok := tp.byHash[kh]
	return e, ok
}

// Insert replaces-in-place if entry.KeyHash is already present, or appends
// a new entry otherwise. The new entry's frames are added before the old
// entry's are subtracted, so UsedFrames never transiently dips even when the
// old and new FramesUsed are equal (spec §9 Open Question on atomic
// replace); used_frames and num_inline end up adjusted by the net delta.
func (tp *TranslationPage) Insert(entry MappingEntry) {
	old, existed := tp.byHash[entry.KeyHash]
	tp.byHash[entry.KeyHash] = entry
	if !existed {
		tp.entries = append(tp.entries, entry.KeyHash)
	}

	tp.UsedFrames += int64(entry.FramesUsed)
	if entry.IsInline {
		tp.NumInline++
	}
	if existed {
		tp.UsedFrames -= int64(old.FramesUsed)
		if old.IsInline {
			tp.NumInline--
		}
	}
}

// Remove deletes the entry for keyHash, if present, returning it.
func (tp *TranslationPage) Remove(kh KeyHash) (MappingEntry, bool) {
	e, ok := tp.byHash[kh]
	if !ok {
		return MappingEntry{}, false
	}
	delete(tp.byHash, kh)
	tp.UsedFrames -= int64(e.FramesUsed)
	if e.IsInline {
		tp.NumInline--
	}
	for i, kh2 := range tp.entries {
		if kh2 == kh {
			tp.entries = append(tp.entries[:i], tp.entries[i+1:]...)
			break
		}
	}
	return e, true
}

// EvictOneInline removes and returns an arbitrary inline entry, chosen
// deterministically as the first one encountered in insertion order (spec
// §4.2, §9 "Determinism"). Returns ok=false if there are no inline
// entries.
func (tp *TranslationPage) EvictOneInline() (MappingEntry, bool) {
	for _, kh := range tp.entries {
		if e := tp.byHash[kh]; e.IsInline {
			return tp.Remove(kh)
		}
	}
	return MappingEntry{}, false
}

// Entries returns a snapshot of all live entries, in insertion order.
func (tp *TranslationPage) Entries() []MappingEntry {
	out := make([]MappingEntry, 0, len(tp.entries))
	for _, kh := range tp.entries {
		out = append(out, tp.byHash[kh])
	}
	return out
}

// Allocator is the page-allocation dependency the GMD needs to materialize
// new translation pages. Satisfied directly by *flash.Flash, or by a
// retry-on-FlashFull wrapper that also drives the garbage collector (spec
// §4.6's "retry-on-FlashFull helper").
type Allocator interface {
	AllocatePage() (flash.PageID, error)
}

// GMD is the Global Mapping Directory: a sparse, lazily-materialized map
// from logical tp_id to TranslationPage, addressed by quadratic probing
// over key hashes (spec §3 "GMD", §4.2).
type GMD struct {
	alloc Allocator

	numTPs      int64
	framesPerTP int64
	maxRetry    int
	entrySize   int64

	pages map[int64]*TranslationPage
}

// New constructs a GMD over numTPs translation-page slots, each with
// framesPerTP frames of entrySize bytes.
func New(alloc Allocator, numTPs, framesPerTP, entrySize int64, maxRetry int) *GMD {
	return &GMD{
		alloc:       alloc,
		numTPs:      numTPs,
		framesPerTP: framesPerTP,
		maxRetry:    maxRetry,
		entrySize:   entrySize,
		pages:       make(map[int64]*TranslationPage),
	}
}

// tpID computes the quadratic probe sequence tp_id(k, r) = (k + r^2) mod N
// (spec §3 "GMD", §4.2).
func (g *GMD) tpID(kh KeyHash, retry int) int64 {
	r := int64(retry)
	return (int64(kh) + r*r) % g.numTPs
}

// GetTP returns the materialized TP at tpID, if any.
func (g *GMD) GetTP(tpID int64) (*TranslationPage, bool) {
	tp, ok := g.pages[tpID]
	return tp, ok
}

// GetOrCreateTP materializes the TP at tpID on first access, assigning it
// a flash page id via Flash.AllocatePage (no write is counted until the
// first PUT persists the page — spec §4.2).
func (g *GMD) GetOrCreateTP(tpID int64) (*TranslationPage, error) {
	if tp, ok := g.pages[tpID]; ok {
		return tp, nil
	}
	tp := NewTranslationPage(tpID, g.framesPerTP)
	pid, err := g.alloc.AllocatePage()
	if err != nil {
		return nil, err
	}
	tp.FlashPageID = pid
	g.pages[tpID] = tp
	return tp, nil
}

// FindEntry searches for keyHash across the quadratic probe sequence,
// stopping early at the first unmaterialized slot (no later probe could
// have placed an entry past a slot that was never written, since insertion
// follows the same sequence — spec §4.2 "early-stop" invariant). Returns
// ok=false if not found.
func (g *GMD) FindEntry(kh KeyHash) (*TranslationPage, MappingEntry, bool) {
	for retry := 0; retry < g.maxRetry; retry++ {
		tp, ok := g.GetTP(g.tpID(kh, retry))
		if !ok {
			return nil, MappingEntry{}, false
		}
		if e, found := tp.Find(kh); found {
			return tp, e, true
		}
	}
	return nil, MappingEntry{}, false
}

// FindTPForInsert walks the same probe sequence, materializing TPs as
// needed, and returns the first one that either already holds keyHash (the
// overwrite path) or has room for framesNeeded more frames. Returns a nil
// page and a nil error if no slot in the probe sequence can hold the entry
// (spec §4.2's CapacityFallback trigger); a non-nil error means a TP could
// not be materialized.
func (g *GMD) FindTPForInsert(kh KeyHash, framesNeeded int64) (*TranslationPage, error) {
	for retry := 0; retry < g.maxRetry; retry++ {
		tp, err := g.GetOrCreateTP(g.tpID(kh, retry))
		if err != nil {
			return nil, err
		}
		if _, found := tp.Find(kh); found {
			return tp, nil
		}
		if tp.HasSpace(framesNeeded) {
			return tp, nil
		}
	}
	return nil, nil
}

// ComputeFrames is compute_frames(total) = max(1, ceil(total/entry_size))
// (spec §4.2).
func (g *GMD) ComputeFrames(totalSize int) int64 {
	frames := (int64(totalSize) + g.entrySize - 1) / g.entrySize
	if frames < 1 {
		return 1
	}
	return frames
}

// RebindTranslationPage finds the one materialized TP whose FlashPageID
// equals old and rebinds it to newID. Used by the GC's translation-page
// relocator (spec §4.6).
func (g *GMD) RebindTranslationPage(old, newID flash.PageID) {
	for _, tp := range g.pages {
		if tp.FlashPageID == old {
			tp.FlashPageID = newID
			return
		}
	}
}

// RebindDataPage rewrites DataPageID from old to newID for every regular
// entry across all materialized TPs. Used by the GC's data-page relocator
// (spec §4.6).
func (g *GMD) RebindDataPage(old, newID flash.PageID) {
	for _, tp := range g.pages {
		for _, kh := range tp.entries {
			e := tp.byHash[kh]
			if !e.IsInline && e.DataPageID == old {
				e.DataPageID = newID
				tp.byHash[kh] = e
			}
		}
	}
}

// TotalEntries sums NumEntries across all materialized TPs.
func (g *GMD) TotalEntries() int {
	total := 0
	for _, tp := range g.pages {
		total += tp.NumEntries()
	}
	return total
}

// TotalInline sums NumInline across all materialized TPs.
func (g *GMD) TotalInline() int64 {
	var total int64
	for _, tp := range g.pages {
		total += tp.NumInline
	}
	return total
}

// AllPages returns every materialized translation page, in no particular
// order.
func (g *GMD) AllPages() []*TranslationPage {
	out := make([]*TranslationPage, 0, len(g.pages))
	for _, tp := range g.pages {
		out = append(out, tp)
	}
	return out
}
