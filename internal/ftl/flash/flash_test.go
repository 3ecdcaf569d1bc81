package flash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftlsim/kvssd/internal/ftl/metrics"
	"github.com/ftlsim/kvssd/internal/ftlerr"
)

func newFlash(totalPages, pagesPerBlock int64) (*Flash, *metrics.Metrics) {
	m := metrics.New()
	return New(m, 16*1024, pagesPerBlock, totalPages), m
}

func TestAllocateWritePageRoundTrip(t *testing.T) {
	f, m := newFlash(16, 4)
	pid, err := f.AllocatePage()
	require.NoError(t, err)
	f.WritePage(pid, metrics.DataPage)

	assert.Equal(t, int64(1), m.FlashWrites)
	assert.Equal(t, int64(1), f.AllocatedPages())
}

func TestAllocatePageFailsWhenFull(t *testing.T) {
	f, _ := newFlash(4, 4)
	for i := 0; i < 4; i++ {
		pid, err := f.AllocatePage()
		require.NoError(t, err)
		f.WritePage(pid, metrics.DataPage)
	}
	_, err := f.AllocatePage()
	assert.ErrorIs(t, err, ftlerr.FlashFull)
}

func TestFreePageKeepsOccupiedUntilErase(t *testing.T) {
	f, _ := newFlash(4, 4)
	pid, err := f.AllocatePage()
	require.NoError(t, err)
	f.WritePage(pid, metrics.DataPage)
	f.FreePage(pid)

	assert.Equal(t, int64(1), f.AllocatedPages()) // still occupied
	assert.Equal(t, int64(1), f.InvalidCountInBlock(f.BlockOf(pid)))
}

func TestEraseBlockReclaimsPages(t *testing.T) {
	f, m := newFlash(4, 4)
	pid, err := f.AllocatePage()
	require.NoError(t, err)
	f.WritePage(pid, metrics.DataPage)
	f.FreePage(pid)

	f.EraseBlock(f.BlockOf(pid))

	assert.Equal(t, int64(0), f.AllocatedPages())
	assert.Equal(t, int64(1), m.FlashErases)
	assert.Equal(t, int64(0), f.InvalidCountInBlock(f.BlockOf(pid)))
}

func TestValidPagesInBlock(t *testing.T) {
	f, _ := newFlash(4, 4)
	p1, err := f.AllocatePage()
	require.NoError(t, err)
	f.WritePage(p1, metrics.TranslationPage)
	p2, err := f.AllocatePage()
	require.NoError(t, err)
	f.WritePage(p2, metrics.DataPage)
	f.FreePage(p2)

	valid := f.ValidPagesInBlock(f.BlockOf(p1))
	assert.Len(t, valid, 1)
	assert.Equal(t, p1, valid[0].PageID)
	assert.Equal(t, metrics.TranslationPage, valid[0].Type)
}

func TestReadPageChargesMetricsOnly(t *testing.T) {
	f, m := newFlash(4, 4)
	pid, err := f.AllocatePage()
	require.NoError(t, err)
	f.WritePage(pid, metrics.DataPage)

	before := f.AllocatedPages()
	f.ReadPage(pid, metrics.DataPage)
	assert.Equal(t, before, f.AllocatedPages())
	assert.Equal(t, int64(1), m.DataReads)
}

func TestUtilization(t *testing.T) {
	f, _ := newFlash(4, 4)
	assert.Equal(t, 0.0, f.Utilization())
	pid, err := f.AllocatePage()
	require.NoError(t, err)
	f.WritePage(pid, metrics.DataPage)
	assert.InDelta(t, 0.25, f.Utilization(), 1e-9)
}
