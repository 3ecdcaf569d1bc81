// Package gc implements the garbage collector: victim selection, page
// relocation, and block erase (spec.md §4.4).
package gc

import (
	"github.com/ftlsim/kvssd/internal/ftl/flash"
	"github.com/ftlsim/kvssd/internal/ftl/metrics"
	"github.com/ftlsim/kvssd/internal/ftllog"
)

// DataRelocator is invoked for every relocated data page, with the old and
// new page ids, so the orchestrator can rewrite mapping pointers (spec
// §4.6).
type DataRelocator func(old, new flash.PageID)

// TranslationRelocator is invoked for every relocated translation page.
type TranslationRelocator func(old, new flash.PageID)

// Collector reclaims invalidated flash pages by relocating live pages out
// of a victim block and erasing it (spec §4.4).
type Collector struct {
	flash     *flash.Flash
	metrics   *metrics.Metrics
	threshold float64

	relocateData        DataRelocator
	relocateTranslation TranslationRelocator
}

// New constructs a Collector with the given utilization trigger threshold
// (spec §6 default 0.85).
func New(f *flash.Flash, m *metrics.Metrics, threshold float64) *Collector {
	return &Collector{flash: f, metrics: m, threshold: threshold}
}

// SetRelocators installs the KVSSD-provided callbacks used to fix up
// mapping pointers after a page moves (spec §4.4, §4.6).
func (c *Collector) SetRelocators(data DataRelocator, translation TranslationRelocator) {
	c.relocateData = data
	c.relocateTranslation = translation
}

// ShouldRun reports whether Flash utilization has crossed the GC trigger
// threshold (spec §4.4).
func (c *Collector) ShouldRun() bool {
	return c.flash.Utilization() >= c.threshold
}

// Run executes GC rounds until !force && !ShouldRun(), no victim block has
// any invalid pages, or maxRounds is exhausted. Returns the number of
// rounds (blocks collected) actually run (spec §4.4). An error is returned
// only if relocation itself cannot find a free page, which would mean the
// device is fuller than a valid victim selection should ever allow.
func (c *Collector) Run(maxRounds int, force bool) (int, error) {
	rounds := 0
	for rounds < maxRounds {
		if !force && !c.ShouldRun() {
			break
		}
		victim, ok := c.selectVictim()
		if !ok {
			break
		}
		if err := c.collectBlock(victim); err != nil {
			return rounds, err
		}
		rounds++
	}
	return rounds, nil
}

// selectVictim greedily picks the block with the largest
// InvalidCountInBlock, breaking ties by the lowest block id. Returns
// ok=false if the best block has zero invalid pages (spec §4.4 step 1).
func (c *Collector) selectVictim() (flash.BlockID, bool) {
	var best flash.BlockID
	var bestInvalid int64
	for bid := int64(0); bid < c.flash.TotalBlocks(); bid++ {
		invalid := c.flash.InvalidCountInBlock(flash.BlockID(bid))
		if invalid > bestInvalid {
			bestInvalid = invalid
			best = flash.BlockID(bid)
		}
	}
	if bestInvalid == 0 {
		return 0, false
	}
	return best, true
}

// collectBlock relocates every valid page out of block, then erases it
// (spec §4.4 steps 2-3).
func (c *Collector) collectBlock(block flash.BlockID) error {
	c.metrics.GCInvocations++
	validPages := c.flash.ValidPagesInBlock(block)

	log := ftllog.WithField("block", int64(block)).WithField("valid_pages", len(validPages))
	log.Info("gc: collecting block")

	for _, vp := range validPages {
		oldPID, pt := vp.PageID, vp.Type
		c.flash.ReadPage(oldPID, pt)

		newPID, err := c.flash.AllocatePage()
		if err != nil {
			return err
		}
		c.flash.WritePage(newPID, pt)
		c.metrics.GCPagesCopied++

		switch pt {
		case metrics.TranslationPage:
			if c.relocateTranslation != nil {
				c.relocateTranslation(oldPID, newPID)
			}
		case metrics.DataPage:
			if c.relocateData != nil {
				c.relocateData(oldPID, newPID)
			}
		}
	}

	c.flash.EraseBlock(block)
	return nil
}
