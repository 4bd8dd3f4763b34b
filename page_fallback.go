//go:build !unix

// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"
	"unsafe"
)

// pageRegistry retains the raw, over-allocated Go-heap slice behind every
// fallback page so the GC does not reclaim it out from under the aligned
// interior pointer callers actually use. Keyed by the aligned address,
// the same keyed-registry idiom the large path in dispatcher.go uses for
// the same reason.
var pageRegistry sync.Map // map[uintptr][]byte

// acquirePage emulates a page-aligned allocation on platforms without a
// cheap anonymous-mmap primitive: over-allocate by one page and hand back
// the first address aligned to size, keeping the raw slice alive in
// pageRegistry.
func acquirePage(size uintptr) (unsafe.Pointer, error) {
	raw := make([]byte, size*2)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	aligned := (base + size - 1) &^ (size - 1)

	pageRegistry.Store(aligned, raw)
	return unsafe.Pointer(aligned), nil
}

// releasePage drops the retained slice, letting the GC reclaim it once
// nothing else references it.
func releasePage(ptr unsafe.Pointer, _ uintptr) error {
	pageRegistry.Delete(uintptr(ptr))
	return nil
}
