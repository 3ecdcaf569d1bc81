package ftl

import (
	"github.com/ftlsim/kvssd/internal/ftl/flash"
	"github.com/ftlsim/kvssd/internal/ftl/gc"
	"github.com/ftlsim/kvssd/internal/ftlerr"
	"github.com/ftlsim/kvssd/internal/ftllog"
)

// retryingAllocator wraps Flash.AllocatePage with the retry-on-FlashFull
// helper described in spec §4.6: on FlashFull, force a GC pass across
// every block; if it reclaims nothing, surface a terminal FlashFull;
// otherwise retry the allocation once.
type retryingAllocator struct {
	flash *flash.Flash
	gc    *gc.Collector
}

func (a *retryingAllocator) AllocatePage() (flash.PageID, error) {
	pid, err := a.flash.AllocatePage()
	if err == nil {
		return pid, nil
	}
	if !ftlerr.Is(err, ftlerr.FlashFull) {
		return 0, err
	}

	ftllog.Log.Warn("flash full: forcing garbage collection")
	rounds, gcErr := a.gc.Run(int(a.flash.TotalBlocks()), true)
	if gcErr != nil {
		return 0, gcErr
	}
	if rounds == 0 {
		return 0, ftlerr.WrapFlashFull("allocate_page retry")
	}
	return a.flash.AllocatePage()
}
