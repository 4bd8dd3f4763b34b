// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"
	"unsafe"
)

// Dispatcher turns a (size, alignment) request into a slot from the
// right sizedPoolSet, falling back to the Go heap for requests above its
// threshold. At Free time it recognizes which path produced a given
// pointer using only the pointer value and a few bytes stored alongside
// it, with no side table to keep in sync.
type Dispatcher struct {
	pointerSize uintptr
	pageSize    uintptr
	threshold   uintptr

	pools []*sizedPoolSet // index (slotSize/pointerSize)-1, fixed after New

	largeMu sync.Mutex
	large   map[uintptr][]byte // keeps large-path backing slices alive
}

// New constructs a standalone Dispatcher. Most callers should use
// DefaultDispatcher instead; New exists so tests (and callers who want
// isolated pools) don't share global mutable state.
func New(opts ...Option) (*Dispatcher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	numClasses := int(cfg.threshold / cfg.pointerSize)
	d := &Dispatcher{
		pointerSize: cfg.pointerSize,
		pageSize:    cfg.pageSize,
		threshold:   cfg.threshold,
		pools:       make([]*sizedPoolSet, numClasses),
		large:       make(map[uintptr][]byte),
	}
	for i := range d.pools {
		slotSize := uintptr(i+1) * cfg.pointerSize
		d.pools[i] = newSizedPoolSet(slotSize, cfg.pageSize)
	}
	return d, nil
}

var (
	defaultOnce       sync.Once
	defaultDispatcher *Dispatcher
)

// DefaultDispatcher returns the process-wide Dispatcher, constructing it
// under a one-time-initialization primitive on first call.
func DefaultDispatcher() *Dispatcher {
	defaultOnce.Do(func() {
		d, err := New()
		if err != nil {
			// Only triggered by an invalid built-in default, which never
			// happens; defaultConfig() always validates.
			panic(err)
		}
		defaultDispatcher = d
	})
	return defaultDispatcher
}

// PageSize reports the page size this Dispatcher lays its pools out on.
func (d *Dispatcher) PageSize() uintptr {
	return d.pageSize
}

// Threshold reports the small-size threshold: normalized requests above
// this many bytes take the large path.
func (d *Dispatcher) Threshold() uintptr {
	return d.threshold
}

// PoolCapacity reports how many slots one page holds for the size class
// that would serve a request of size bytes. Returns an error if size
// would route to the large path.
func (d *Dispatcher) PoolCapacity(size uintptr) (int32, error) {
	norm := d.normalize(size, d.pointerSize)
	if norm > d.threshold {
		return 0, ErrOutOfMemory
	}
	idx := d.classIndex(norm)
	return d.pools[idx].capacity, nil
}

// poolBacked reports whether a request for the given (normalized) size
// and alignment can be served by a sizedPoolSet. A pool's slots only
// start out aligned to the pointer size, so anything stricter has to go
// through the large path, where allocLarge can align the returned
// pointer directly.
func (d *Dispatcher) poolBacked(norm, alignment uintptr) bool {
	return norm <= d.threshold && alignment <= d.pointerSize
}

// normalize picks the size class for a request: round size up to a
// multiple of the pointer size, then, if alignment doesn't divide the
// pointer size, bump further until the result is also a multiple of
// alignment. Size classes only ever satisfy alignments up to the
// pointer size on their own; Alloc routes anything stricter to the
// large path instead of trusting this bump alone.
func (d *Dispatcher) normalize(size, alignment uintptr) uintptr {
	if size == 0 {
		size = 1
	}
	if alignment == 0 {
		alignment = 1
	}
	if rem := size % d.pointerSize; rem != 0 {
		size += d.pointerSize - rem
	}
	for size%alignment != 0 {
		size += d.pointerSize
	}
	return size
}

func (d *Dispatcher) classIndex(normalizedSize uintptr) int {
	return int(normalizedSize/d.pointerSize) - 1
}

// Alloc routes a (size, alignment) request to the right sizedPoolSet, or
// to the large path when the normalized size exceeds the threshold or
// alignment is stricter than the pointer size (a sizedPoolSet's slots
// are only ever pointer-aligned). Returns (nil, ErrOutOfMemory) on
// failure; never panics, never retries.
func (d *Dispatcher) Alloc(size, alignment uintptr) (unsafe.Pointer, error) {
	ptr, _, err := d.allocNormalized(size, alignment)
	return ptr, err
}

// allocNormalized does the work of Alloc and additionally returns the
// normalized size it computed, so callers that need both (poolArena's
// own Len/Cap/Peak bookkeeping) don't have to call normalize a second
// time for the exact same request.
func (d *Dispatcher) allocNormalized(size, alignment uintptr) (unsafe.Pointer, uintptr, error) {
	if alignment == 0 {
		alignment = 1
	}
	norm := d.normalize(size, alignment)
	if !d.poolBacked(norm, alignment) {
		ptr, err := d.allocLarge(norm, alignment)
		return ptr, norm, err
	}
	ptr, err := d.pools[d.classIndex(norm)].alloc()
	if err != nil {
		return nil, norm, ErrOutOfMemory
	}
	return ptr, norm, nil
}

// AllocNoThrow returns nil on failure instead of an error, for callers
// that would rather check a nil pointer than handle an error value.
func (d *Dispatcher) AllocNoThrow(size, alignment uintptr) unsafe.Pointer {
	ptr, err := d.Alloc(size, alignment)
	if err != nil {
		return nil
	}
	return ptr
}

// MustAlloc panics on allocation failure instead of returning an error.
func (d *Dispatcher) MustAlloc(size, alignment uintptr) unsafe.Pointer {
	ptr, err := d.Alloc(size, alignment)
	if err != nil {
		panic(err)
	}
	return ptr
}

// allocLarge takes the path for requests above the threshold, or for
// any alignment stricter than the pointer size: over-allocate by
// alignment-1 extra bytes plus sizeof(mallocTag), then slide the
// returned pointer up to the first address satisfying alignment,
// leaving room for the sentinel immediately before it. The backing
// slice is kept alive in d.large, keyed by the returned pointer, until
// Free is called.
func (d *Dispatcher) allocLarge(size, alignment uintptr) (unsafe.Pointer, error) {
	if alignment == 0 {
		alignment = 1
	}
	total := size + mallocTagSize + alignment - 1
	buf := make([]byte, total)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))

	candidate := base + mallocTagSize
	if rem := candidate % alignment; rem != 0 {
		candidate += alignment - rem
	}

	tag := (*mallocTag)(unsafe.Pointer(candidate - mallocTagSize))
	tag.sentinel = mallocSentinel

	ptr := unsafe.Pointer(candidate)

	d.largeMu.Lock()
	d.large[candidate] = buf
	d.largeMu.Unlock()

	return ptr, nil
}

// freeLarge drops the retained backing slice so the Go GC reclaims it.
func (d *Dispatcher) freeLarge(ptr unsafe.Pointer) {
	d.largeMu.Lock()
	delete(d.large, uintptr(ptr))
	d.largeMu.Unlock()
}

// Free reads the bytes at ptr-sizeof(mallocTag), dispatching to the
// large path if they match mallocSentinel, or recovering the pool header
// by masking ptr to its page boundary and dispatching to that size
// class otherwise.
//
// Infallible by contract: passing a pointer this Dispatcher never
// produced is undefined behavior, checked only when built with the
// debug tag.
func (d *Dispatcher) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	tagAddr := uintptr(ptr) - mallocTagSize
	tag := (*mallocTag)(unsafe.Pointer(tagAddr))
	if tag.sentinel == mallocSentinel {
		d.freeLarge(ptr)
		return
	}

	h := headerOf(ptr, d.pageSize)
	if debugEnabled && h.tag != poolSentinel {
		panic("arena: Free called with a pointer this Dispatcher did not allocate")
	}
	idx := d.classIndex(uintptr(h.slotSize))
	_ = d.pools[idx].free(ptr)
}
