// SPDX-License-Identifier: Apache-2.0

package arena

import "unsafe"

// poolSentinel marks the first bytes of every page-aligned pool region.
// In builds with the debug tag it is read back at Free time, at the page
// boundary the pointer masks to, to confirm the page really is a pool.
var poolSentinel = [8]byte{'_', '_', 'p', 'o', 'o', 'l', '_', 0}

// mallocSentinel is written immediately before every large (system-heap)
// allocation. It must never collide with poolSentinel. It cannot match a
// free-list link on a little-endian 64-bit platform with a 48-bit user
// address space: its byte 6 ('_') is non-zero, while such a pointer's two
// top bytes are always zero. Client data in an adjacent allocated slot is
// not checked and could hold the same bytes.
var mallocSentinel = [8]byte{'_', '_', 's', 'y', 's', '_', '_', 0}

// poolHeader sits at the first bytes of every pool page and doubles as
// the Pool abstraction itself: there is no separate Go value for "the
// pool", callers operate directly on a *poolHeader recovered by masking
// a slot pointer to its page boundary.
type poolHeader struct {
	tag      [8]byte
	slotSize int32
	capacity int32
	occupied int32
	_        int32 // keeps free 8-byte aligned regardless of GOARCH
	free     unsafe.Pointer
}

var poolHeaderSize = unsafe.Sizeof(poolHeader{})

// mallocTag is the fixed-size prefix written before every large
// allocation so that Free can recognize it without consulting a side
// table.
type mallocTag struct {
	sentinel [8]byte
}

var mallocTagSize = unsafe.Sizeof(mallocTag{})

func (h *poolHeader) full() bool {
	return h.occupied >= h.capacity
}

func (h *poolHeader) empty() bool {
	return h.occupied == 0
}

func (h *poolHeader) address() uintptr {
	return uintptr(unsafe.Pointer(h))
}

// headerOf recovers the poolHeader owning ptr by masking it down to the
// nearest pageSize boundary. pageSize must be a power of two, which it
// always is for an OS page size.
func headerOf(ptr unsafe.Pointer, pageSize uintptr) *poolHeader {
	addr := uintptr(ptr) &^ (pageSize - 1)
	return (*poolHeader)(unsafe.Pointer(addr))
}
