// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"
	"unsafe"
)

// poolArena adapts a Dispatcher to the Arena interface for callers who
// want per-object recycling instead of monotonicArena's bump-and-reset
// model, sitting alongside monotonicArena and concurrentArena as one
// more Arena implementation.
//
// Reset and Release are equivalent for a poolArena: unlike a monotonic
// buffer, pool-backed slots can't be silently reused in place without
// running every outstanding pointer back through the Dispatcher's free
// list, so both walk the live set and hand every slot back.
type poolArena struct {
	mu   sync.Mutex
	d    *Dispatcher
	live map[unsafe.Pointer]uintptr // ptr -> normalized (slot) size

	len  uintptr // sum of caller-requested sizes currently live
	cap  uintptr // sum of normalized slot sizes currently live
	peak uintptr // high-water mark of cap
}

// NewPoolArena returns an Arena backed by d. If d is nil, the process's
// DefaultDispatcher is used.
func NewPoolArena(d *Dispatcher) Arena {
	if d == nil {
		d = DefaultDispatcher()
	}
	return &poolArena{d: d, live: make(map[unsafe.Pointer]uintptr)}
}

// Alloc satisfies the Arena interface.
func (a *poolArena) Alloc(size, alignment uintptr) unsafe.Pointer {
	ptr, norm, err := a.d.allocNormalized(size, alignment)
	if err != nil {
		return nil
	}

	a.mu.Lock()
	a.live[ptr] = norm
	a.len += size
	a.cap += norm
	if a.cap > a.peak {
		a.peak = a.cap
	}
	a.mu.Unlock()
	return ptr
}

// Reset satisfies the Arena interface: frees every slot this arena
// handed out back to the Dispatcher, since they cannot be reclaimed
// in bulk without going through the free list.
func (a *poolArena) Reset() {
	a.mu.Lock()
	live := a.live
	a.live = make(map[unsafe.Pointer]uintptr, len(live))
	a.len, a.cap = 0, 0
	a.mu.Unlock()

	for ptr := range live {
		a.d.Free(ptr)
	}
}

// Release satisfies the Arena interface. For a poolArena this does
// exactly what Reset does; see the type doc comment for why.
func (a *poolArena) Release() {
	a.Reset()
}

// Len returns the sum of caller-requested sizes currently live.
func (a *poolArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.len)
}

// Cap returns the sum of normalized slot bytes currently committed to
// live allocations.
func (a *poolArena) Cap() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.cap)
}

// Peak returns the high-water mark of Cap, not reset by Reset.
func (a *poolArena) Peak() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.peak)
}
