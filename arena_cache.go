// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"
	"weak"
)

// ArenaCache provides a thread-safe cache of poolArena instances for
// memory-efficient, high-frequency allocate/release cycles. It uses weak
// pointers so the GC can reclaim idle cache entries under memory
// pressure.
//
// by storing CacheItem as weak pointers, the GC can collect them at any time
// before using a CacheItem, we try to get a strong pointer while removing it
// from the cache once we call Release, we turn the item back into the cache
// and make it a weak pointer again, this means that at any time, GC can
// claim back the memory if required, allowing GC to automatically manage an
// appropriate cache size depending on available memory and GC pressure
type ArenaCache struct {
	items []weak.Pointer[CacheItem]
	sizes map[uint64]*cacheItemSize
	d     *Dispatcher
	mu    sync.Mutex
}

// cacheItemSize tracks the required memory across the last 50 arenas
// released for a given use-case key, kept only as an introspection hint
// — a Dispatcher-backed poolArena has no fixed buffer capacity to size
// from it.
type cacheItemSize struct {
	count      int
	totalBytes int
}

// CacheItem wraps an Arena handed out by an ArenaCache.
type CacheItem struct {
	Arena Arena
	Key   uint64

	// basePeak is Arena.Peak() as observed at Acquire time. Peak never
	// resets for the lifetime of the underlying Arena (by the Arena
	// interface's own contract), and the same Arena gets handed out
	// under different keys over its life, so Release has to record the
	// growth since basePeak rather than the raw Peak() — otherwise a
	// key would inherit whatever peak a previous key's usage left
	// behind.
	basePeak int
}

// NewArenaCache creates a new ArenaCache backed by d. If d is nil, the
// process's DefaultDispatcher is used for every arena the cache hands out.
func NewArenaCache(d *Dispatcher) *ArenaCache {
	if d == nil {
		d = DefaultDispatcher()
	}
	return &ArenaCache{
		sizes: make(map[uint64]*cacheItemSize),
		d:     d,
	}
}

// Acquire gets an arena from the cache or creates a new one if none are
// available. The key parameter is used to track historical sizing per
// use case.
func (c *ArenaCache) Acquire(key uint64) *CacheItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.items) > 0 {
		lastIdx := len(c.items) - 1
		wp := c.items[lastIdx]
		c.items = c.items[:lastIdx]

		v := wp.Value()
		if v != nil {
			v.Key = key
			v.basePeak = v.Arena.Peak()
			return v
		}
		// If weak pointer was nil (GC collected), continue to next item
	}

	return &CacheItem{
		Arena: NewPoolArena(c.d),
		Key:   key,
	}
}

// Release returns an arena to the cache for reuse. The growth in peak
// memory usage since this item's Acquire is recorded for introspection.
func (c *ArenaCache) Release(item *CacheItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(item)
}

// ReleaseMany returns a batch of arenas to the cache in one locked pass.
func (c *ArenaCache) ReleaseMany(items []*CacheItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		c.releaseLocked(item)
	}
}

func (c *ArenaCache) releaseLocked(item *CacheItem) {
	peak := peakSince(item)
	item.Arena.Reset()

	c.recordLocked(item.Key, peak)
	item.Key = 0

	w := weak.Make(item)
	c.items = append(c.items, w)
}

// peakSince returns how far item.Arena's all-time Peak grew since it was
// last handed out by Acquire, clamped to zero.
func peakSince(item *CacheItem) int {
	delta := item.Arena.Peak() - item.basePeak
	if delta < 0 {
		delta = 0
	}
	return delta
}

func (c *ArenaCache) recordLocked(key uint64, peak int) {
	if size, ok := c.sizes[key]; ok {
		if size.count == 50 {
			size.count = 1
			size.totalBytes = size.totalBytes / 50
		}
		size.count++
		size.totalBytes += peak
	} else {
		c.sizes[key] = &cacheItemSize{count: 1, totalBytes: peak}
	}
}

// typicalSize returns the rolling-average peak byte usage recorded for a
// use-case key, or 0 if none has been recorded yet.
func (c *ArenaCache) typicalSize(key uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size, ok := c.sizes[key]; ok {
		return size.totalBytes / size.count
	}
	return 0
}
