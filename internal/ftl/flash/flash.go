// Package flash models the physical NAND layer the FTL core addresses:
// page occupancy and validity bitmaps, a sequential allocator, and
// block-granularity erase (spec.md §3 "Flash", §4.1).
package flash

import (
	"github.com/ftlsim/kvssd/internal/ftl/metrics"
	"github.com/ftlsim/kvssd/internal/ftlerr"
	"github.com/ftlsim/kvssd/internal/ftllog"
)

// PageID identifies one flash page.
type PageID int64

// BlockID identifies one erase block (a contiguous range of pages).
type BlockID int64

// Flash is the physical page/block bookkeeping layer. It never stores
// actual bytes (spec §1 Non-goals) — only which page ids are occupied,
// which of those are still logically valid, and what type of page
// (translation or data) each one holds.
type Flash struct {
	metrics *metrics.Metrics

	pageSize      int64
	pagesPerBlock int64
	totalPages    int64
	totalBlocks   int64

	// occupied is the set of physically-written pages. A page cannot be
	// reallocated while occupied, even after it is freed, because NAND
	// requires an erase before a page can be rewritten (spec §4.1).
	occupied map[PageID]struct{}
	// valid is the set of logically-live pages. valid ⊆ occupied at all
	// times (spec §3).
	valid map[PageID]struct{}
	// pageTypes records the page type of every occupied page.
	pageTypes map[PageID]metrics.PageType

	next        PageID
	eraseCounts []int64
}

// New constructs a Flash with the given geometry. pageSize and
// pagesPerBlock come from config.Flash; totalPages is derived from the
// device capacity.
func New(m *metrics.Metrics, pageSize int64, pagesPerBlock int64, totalPages int64) *Flash {
	totalBlocks := totalPages / pagesPerBlock
	return &Flash{
		metrics:       m,
		pageSize:      pageSize,
		pagesPerBlock: pagesPerBlock,
		totalPages:    totalPages,
		totalBlocks:   totalBlocks,
		occupied:      make(map[PageID]struct{}),
		valid:         make(map[PageID]struct{}),
		pageTypes:     make(map[PageID]metrics.PageType),
		eraseCounts:   make([]int64, totalBlocks),
	}
}

// TotalPages returns the device's total page count.
func (f *Flash) TotalPages() int64 { return f.totalPages }

// TotalBlocks returns the device's total block count.
func (f *Flash) TotalBlocks() int64 { return f.totalBlocks }

// AllocatePage performs a sequential search from the rolling cursor for a
// page id that is not occupied, wrapping at totalPages. It fails with
// ftlerr.FlashFull after a full revolution finds no candidate (spec §4.1).
// It does not itself mark the page occupied — that happens on WritePage —
// but advancing the cursor past the returned id prevents a second call
// from handing out the same id before it's written.
func (f *Flash) AllocatePage() (PageID, error) {
	for i := int64(0); i < f.totalPages; i++ {
		candidate := f.next
		f.next++
		if f.next >= PageID(f.totalPages) {
			f.next = 0
		}
		if _, occ := f.occupied[candidate]; !occ {
			return candidate, nil
		}
	}
	return 0, ftlerr.FlashFull
}

// WritePage records pid as occupied and valid, holding a page of the given
// type, and charges one flash write.
func (f *Flash) WritePage(pid PageID, pt metrics.PageType) {
	f.metrics.FlashWrites++
	f.occupied[pid] = struct{}{}
	f.valid[pid] = struct{}{}
	f.pageTypes[pid] = pt
}

// ReadPage charges one flash read of the given type. It has no side
// effect on occupancy/validity (spec §4.1).
func (f *Flash) ReadPage(_ PageID, pt metrics.PageType) {
	f.metrics.RecordFlashRead(pt)
}

// FreePage removes pid from the valid set only; it remains occupied (and
// therefore unavailable to AllocatePage) until its block is erased. This
// is the logical-invalidation half of a delete/overwrite (spec §4.1, §5).
func (f *Flash) FreePage(pid PageID) {
	delete(f.valid, pid)
}

// EraseBlock clears both the occupied and valid sets across the block's
// page range and increments the erase counter. It is the only operation
// that increments flash_erases (spec §4.1).
func (f *Flash) EraseBlock(bid BlockID) {
	f.metrics.FlashErases++
	f.eraseCounts[bid]++
	start, end := f.blockRange(bid)
	for pid := start; pid < end; pid++ {
		delete(f.occupied, pid)
		delete(f.valid, pid)
		delete(f.pageTypes, pid)
	}
	if f.next >= start && f.next < end {
		f.next = start
	}
	ftllog.WithField("block", int64(bid)).Debug("flash: erased block")
}

// BlockOf returns the block id containing pid.
func (f *Flash) BlockOf(pid PageID) BlockID {
	return BlockID(int64(pid) / f.pagesPerBlock)
}

// ValidPagesInBlock returns the (pid, type) pairs for every page in bid's
// range that is currently valid (spec §4.1).
func (f *Flash) ValidPagesInBlock(bid BlockID) []struct {
	PageID PageID
	Type   metrics.PageType
} {
	start, end := f.blockRange(bid)
	var out []struct {
		PageID PageID
		Type   metrics.PageType
	}
	for pid := start; pid < end; pid++ {
		if _, ok := f.valid[pid]; ok {
			out = append(out, struct {
				PageID PageID
				Type   metrics.PageType
			}{pid, f.pageTypes[pid]})
		}
	}
	return out
}

// InvalidCountInBlock counts pages in bid's range that are occupied but no
// longer valid: physically-written garbage that a GC pass would reclaim by
// erasing. Never-written (free) pages are not counted — they need no
// reclamation, they're already writable.
func (f *Flash) InvalidCountInBlock(bid BlockID) int64 {
	start, end := f.blockRange(bid)
	var invalid int64
	for pid := start; pid < end; pid++ {
		if _, occ := f.occupied[pid]; occ {
			if _, v := f.valid[pid]; !v {
				invalid++
			}
		}
	}
	return invalid
}

// AllocatedPages is the number of currently-occupied pages.
func (f *Flash) AllocatedPages() int64 {
	return int64(len(f.occupied))
}

// Utilization is |occupied pages| / total_pages, the GC trigger signal
// (spec §4.1, §4.4).
func (f *Flash) Utilization() float64 {
	if f.totalPages == 0 {
		return 0
	}
	return float64(f.AllocatedPages()) / float64(f.totalPages)
}

func (f *Flash) blockRange(bid BlockID) (PageID, PageID) {
	start := PageID(int64(bid) * f.pagesPerBlock)
	end := start + PageID(f.pagesPerBlock)
	return start, end
}
