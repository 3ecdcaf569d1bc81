// Package cmt implements the Cached Mapping Table: a bounded LRU cache of
// regular (non-inline) mapping entries (spec.md §3 "CMT", §4.3). The
// intrusive doubly-linked-list-plus-map shape follows the buffer-pool LRU
// pattern used elsewhere in the retrieved pack (see e.g. the
// storage.BufferPool cache in the wider corpus); this one needs no mutex
// since the FTL core is single-threaded by design (spec §5).
package cmt

import (
	"github.com/ftlsim/kvssd/internal/ftl/flash"
	"github.com/ftlsim/kvssd/internal/ftl/mapping"
)

type node struct {
	key   mapping.KeyHash
	entry mapping.MappingEntry
	prev  *node
	next  *node
}

// CMT is a bounded, insertion-ordered LRU cache keyed by key hash. It never
// holds inline entries under normal operation (spec §3, §4.3).
type CMT struct {
	capacity int64
	byKey    map[mapping.KeyHash]*node
	head     *node // most-recently-used sentinel
	tail     *node // least-recently-used sentinel
}

// New constructs a CMT with room for capacity entries.
func New(capacity int64) *CMT {
	c := &CMT{
		capacity: capacity,
		byKey:    make(map[mapping.KeyHash]*node),
	}
	c.head = &node{}
	c.tail = &node{}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Len returns the current number of cached entries.
func (c *CMT) Len() int {
	return len(c.byKey)
}

// Lookup moves keyHash to the MRU end and returns its entry, or ok=false
// on a miss (spec §4.3).
func (c *CMT) Lookup(kh mapping.KeyHash) (mapping.MappingEntry, bool) {
	n, ok := c.byKey[kh]
	if !ok {
		return mapping.MappingEntry{}, false
	}
	c.moveToFront(n)
	return n.entry, true
}

// Insert caches entry under keyHash, evicting the LRU entry if at
// capacity first. A no-op if entry is inline — the KVPack policy family
// never caches inline entries (spec §4.3).
func (c *CMT) Insert(kh mapping.KeyHash, entry mapping.MappingEntry) {
	if entry.IsInline {
		return
	}
	if n, ok := c.byKey[kh]; ok {
		n.entry = entry
		c.moveToFront(n)
		return
	}
	for int64(len(c.byKey)) >= c.capacity && c.capacity > 0 {
		c.evictLRU()
	}
	if c.capacity <= 0 {
		return
	}
	n := &node{key: kh, entry: entry}
	c.byKey[kh] = n
	c.pushFront(n)
}

// Invalidate removes keyHash from the cache, if present (spec §4.3).
func (c *CMT) Invalidate(kh mapping.KeyHash) {
	n, ok := c.byKey[kh]
	if !ok {
		return
	}
	c.unlink(n)
	delete(c.byKey, kh)
}

// UpdateDataPage rewrites DataPageID from oldPage to newPage for every
// cached regular entry that currently points at oldPage. Called by GC
// during data-page relocation (spec §4.3, §4.6).
func (c *CMT) UpdateDataPage(oldPage, newPage flash.PageID) {
	for _, n := range c.byKey {
		if !n.entry.IsInline && n.entry.DataPageID == oldPage {
			n.entry.DataPageID = newPage
		}
	}
}

func (c *CMT) moveToFront(n *node) {
	c.unlink(n)
	c.pushFront(n)
}

func (c *CMT) pushFront(n *node) {
	n.next = c.head.next
	n.prev = c.head
	c.head.next.prev = n
	c.head.next = n
}

func (c *CMT) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *CMT) evictLRU() {
	lru := c.tail.prev
	if lru == c.head {
		return
	}
	c.unlink(lru)
	delete(c.byKey, lru.key)
}
