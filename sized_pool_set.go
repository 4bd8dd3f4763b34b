// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sort"
	"sync"
	"unsafe"
)

// sizedPoolSet owns every pool backing one fixed slot size. It creates
// pools lazily, tracks the ones with free slots ordered by address, and
// releases a pool back to the OS the instant it empties. The non-full
// pools live in one address-sorted slice rather than an intrusive list,
// which keeps the minimum-address tie-break a binary search instead of a
// linked-list walk.
type sizedPoolSet struct {
	mu       sync.Mutex
	slotSize uintptr
	pageSize uintptr
	capacity int32

	nonFull []*poolHeader // sorted ascending by address
	cached  *poolHeader
}

func newSizedPoolSet(slotSize, pageSize uintptr) *sizedPoolSet {
	return &sizedPoolSet{
		slotSize: slotSize,
		pageSize: pageSize,
		capacity: int32(poolCapacity(slotSize, pageSize)),
	}
}

// alloc prefers the cached pool, else the minimum-address non-full pool,
// else creates one.
func (s *sizedPoolSet) alloc() (unsafe.Pointer, error) {
	s.mu.Lock()
	p := s.cached
	if p == nil && len(s.nonFull) > 0 {
		p = s.nonFull[0]
	}
	if p == nil {
		s.mu.Unlock()
		newPage, err := newPoolPage(s.slotSize, s.pageSize)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.insertNonFull(newPage)
		p = newPage
	}

	ptr := p.allocate()
	if p.full() {
		s.removeNonFull(p)
		if s.cached == p {
			s.cached = s.firstNonFullLocked()
		}
	} else {
		s.cached = p
	}
	s.mu.Unlock()
	return ptr, nil
}

// free returns ptr's slot to its pool. If this brings occupied from 1 to
// 0 the page is released to the OS immediately; otherwise the slot is
// pushed back onto the pool's free list and, if the pool had been full,
// it rejoins the non-full set.
//
// A pool is only unlinked from nonFull/cached once releasing its page
// has actually succeeded — if the OS call fails, the page is still
// mapped, so the slot goes back onto the pool's own free list instead
// and the pool stays exactly where it was, usable for the next alloc.
func (s *sizedPoolSet) free(ptr unsafe.Pointer) error {
	h := headerOf(ptr, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	if h.occupied == 1 {
		if err := h.release(s.pageSize); err != nil {
			wasFull := h.full() // true only for a single-slot pool (capacity == 1)
			h.deallocate(ptr)
			if wasFull {
				s.insertNonFull(h)
			}
			s.cached = h
			return err
		}
		s.removeNonFull(h)
		if s.cached == h {
			s.cached = s.firstNonFullLocked()
		}
		return nil
	}

	wasFull := h.full()
	h.deallocate(ptr)
	if wasFull {
		s.insertNonFull(h)
	}
	s.cached = h
	return nil
}

func (s *sizedPoolSet) firstNonFullLocked() *poolHeader {
	if len(s.nonFull) == 0 {
		return nil
	}
	return s.nonFull[0]
}

// insertNonFull inserts p keeping s.nonFull sorted ascending by address,
// so the lowest-address non-full pool is always s.nonFull[0].
func (s *sizedPoolSet) insertNonFull(p *poolHeader) {
	addr := p.address()
	i := sort.Search(len(s.nonFull), func(i int) bool {
		return s.nonFull[i].address() >= addr
	})
	s.nonFull = append(s.nonFull, nil)
	copy(s.nonFull[i+1:], s.nonFull[i:])
	s.nonFull[i] = p
}

func (s *sizedPoolSet) removeNonFull(p *poolHeader) {
	addr := p.address()
	i := sort.Search(len(s.nonFull), func(i int) bool {
		return s.nonFull[i].address() >= addr
	})
	if i >= len(s.nonFull) || s.nonFull[i] != p {
		return
	}
	s.nonFull = append(s.nonFull[:i], s.nonFull[i+1:]...)
}

// nonFullCount reports how many pools of this size class currently have
// at least one free slot. Full pools are not tracked, so they are not
// counted.
func (s *sizedPoolSet) nonFullCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nonFull)
}
