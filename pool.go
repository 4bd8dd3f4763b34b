// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"fmt"
	"unsafe"
)

// newPoolPage acquires one page-aligned region from the OS and carves it
// into slots of slotSize bytes, linked front to back through an
// intrusive free list embedded in the slots themselves: walk the slot
// array once, writing each slot's first word to point at the next slot,
// leaving the last slot's link nil.
func newPoolPage(slotSize, pageSize uintptr) (*poolHeader, error) {
	raw, err := acquirePage(pageSize)
	if err != nil {
		return nil, err
	}

	h := (*poolHeader)(raw)
	h.tag = poolSentinel
	h.slotSize = int32(slotSize)
	h.capacity = int32(poolCapacity(slotSize, pageSize))
	h.occupied = 0

	if h.capacity == 0 {
		releasePage(raw, pageSize)
		return nil, fmt.Errorf("arena: page size %d too small to fit one %d-byte slot", pageSize, slotSize)
	}

	first := uintptr(raw) + poolHeaderSize
	for i := int32(0); i < h.capacity; i++ {
		slot := first + uintptr(i)*slotSize
		var next unsafe.Pointer
		if i+1 < h.capacity {
			next = unsafe.Pointer(first + uintptr(i+1)*slotSize)
		}
		*(*unsafe.Pointer)(unsafe.Pointer(slot)) = next
	}
	h.free = unsafe.Pointer(first)

	return h, nil
}

// poolCapacity computes floor((pageSize - headerSize) / slotSize), the
// number of fixed-size slots that fit in one page after the header.
func poolCapacity(slotSize, pageSize uintptr) uintptr {
	if slotSize == 0 || pageSize <= poolHeaderSize {
		return 0
	}
	return (pageSize - poolHeaderSize) / slotSize
}

// allocate pops the head of the free list. Returns nil when the pool is
// exhausted; never panics, never retries.
func (h *poolHeader) allocate() unsafe.Pointer {
	if h.free == nil {
		return nil
	}
	slot := h.free
	h.free = *(*unsafe.Pointer)(slot)
	h.occupied++
	return slot
}

// deallocate pushes ptr back onto the head of the free list. Callers
// must guarantee ptr was produced by a prior allocate on this exact
// pool; deallocate itself does not (and, per the intrusive-list design,
// cannot cheaply) verify that.
func (h *poolHeader) deallocate(ptr unsafe.Pointer) {
	*(*unsafe.Pointer)(ptr) = h.free
	h.free = ptr
	h.occupied--
}

func (h *poolHeader) release(pageSize uintptr) error {
	return releasePage(unsafe.Pointer(h), pageSize)
}
