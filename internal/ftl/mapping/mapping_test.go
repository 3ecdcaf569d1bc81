package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftlsim/kvssd/internal/ftl/flash"
)

type fakeAllocator struct {
	next flash.PageID
}

func (a *fakeAllocator) AllocatePage() (flash.PageID, error) {
	pid := a.next
	a.next++
	return pid, nil
}

func TestComputeKeyHashDeterministic(t *testing.T) {
	h1 := ComputeKeyHash([]byte("hello"), 0xFFFF)
	h2 := ComputeKeyHash([]byte("hello"), 0xFFFF)
	assert.Equal(t, h1, h2)

	h3 := ComputeKeyHash([]byte("world"), 0xFFFF)
	assert.NotEqual(t, h1, h3)
}

func TestTranslationPageInsertFindRemove(t *testing.T) {
	tp := NewTranslationPage(0, 4)
	e := NewRegularEntry(1, 10, 20, 5)
	tp.Insert(e)

	assert.Equal(t, int64(1), tp.UsedFrames)
	got, ok := tp.Find(1)
	require.True(t, ok)
	assert.Equal(t, e, got)

	removed, ok := tp.Remove(1)
	require.True(t, ok)
	assert.Equal(t, e, removed)
	assert.Equal(t, int64(0), tp.UsedFrames)
}

func TestTranslationPageInsertReplaceNoTransientDip(t *testing.T) {
	tp := NewTranslationPage(0, 4)
	tp.Insert(NewInlineEntry(1, 10, 2, 2))
	assert.Equal(t, int64(2), tp.UsedFrames)
	assert.Equal(t, int64(1), tp.NumInline)

	// replace with an entry of equal frame cost: UsedFrames must never dip
	tp.Insert(NewInlineEntry(1, 10, 3, 2))
	assert.Equal(t, int64(2), tp.UsedFrames)
	assert.Equal(t, int64(1), tp.NumInline)
	assert.Equal(t, 1, tp.NumEntries())
}

func TestTranslationPageEvictOneInline(t *testing.T) {
	tp := NewTranslationPage(0, 8)
	tp.Insert(NewRegularEntry(1, 10, 20, 5))
	tp.Insert(NewInlineEntry(2, 10, 2, 1))

	evicted, ok := tp.EvictOneInline()
	require.True(t, ok)
	assert.Equal(t, KeyHash(2), evicted.KeyHash)
	assert.Equal(t, int64(0), tp.NumInline)

	_, ok = tp.EvictOneInline()
	assert.False(t, ok)
}

func TestHasSpace(t *testing.T) {
	tp := NewTranslationPage(0, 4)
	assert.True(t, tp.HasSpace(4))
	assert.False(t, tp.HasSpace(5))
}

func TestGMDGetOrCreateTPMaterializesOnce(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New(alloc, 16, 4, 32, 8)

	tp1, err := g.GetOrCreateTP(3)
	require.NoError(t, err)
	tp2, err := g.GetOrCreateTP(3)
	require.NoError(t, err)
	assert.Same(t, tp1, tp2)
}

func TestGMDFindEntryEarlyStop(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New(alloc, 16, 4, 32, 8)

	kh := KeyHash(1)
	// FindEntry must not materialize any TP; a key never inserted is simply
	// not found, with no side effect on the GMD.
	_, _, found := g.FindEntry(kh)
	assert.False(t, found)
	assert.Len(t, g.AllPages(), 0)
}

func TestGMDFindTPForInsertQuadraticProbing(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New(alloc, 4, 1, 32, 8) // 1 frame per TP forces probing on collision

	kh := KeyHash(0) // probes tp_id 0, then (0+1)%4=1, then (0+4)%4=0, ...
	tp1, err := g.FindTPForInsert(kh, 1)
	require.NoError(t, err)
	tp1.Insert(NewRegularEntry(kh, 1, 1, 100))

	kh2 := KeyHash(4) // tp_id(kh2, 0) = 4%4 = 0, same starting slot, already full
	tp2, err := g.FindTPForInsert(kh2, 1)
	require.NoError(t, err)
	assert.NotEqual(t, tp1.TPID, tp2.TPID)
}

func TestGMDRebindDataPage(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New(alloc, 16, 4, 32, 8)
	tp, err := g.FindTPForInsert(KeyHash(1), 1)
	require.NoError(t, err)
	tp.Insert(NewRegularEntry(1, 1, 1, 42))

	g.RebindDataPage(42, 99)

	_, e, found := g.FindEntry(1)
	require.True(t, found)
	assert.Equal(t, flash.PageID(99), e.DataPageID)
}

func TestGMDRebindTranslationPage(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New(alloc, 16, 4, 32, 8)
	tp, err := g.FindTPForInsert(KeyHash(1), 1)
	require.NoError(t, err)
	old := tp.FlashPageID

	g.RebindTranslationPage(old, 999)
	assert.Equal(t, flash.PageID(999), tp.FlashPageID)
}

func TestComputeFramesRoundsUpAndFloorsAtOne(t *testing.T) {
	alloc := &fakeAllocator{}
	g := New(alloc, 16, 4, 10, 8)
	assert.Equal(t, int64(1), g.ComputeFrames(0))
	assert.Equal(t, int64(1), g.ComputeFrames(10))
	assert.Equal(t, int64(2), g.ComputeFrames(11))
}
