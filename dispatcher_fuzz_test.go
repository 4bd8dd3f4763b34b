// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// FuzzDispatcherAllocFree checks, across arbitrary (size, alignment)
// pairs, that every small-path pointer masks back to a page carrying the
// pool sentinel and the right slot-size class, every large-path
// pointer's preceding bytes carry the malloc sentinel, and every
// returned pointer actually satisfies the requested alignment. A single
// alloc/free round trip must never panic regardless of input.
func FuzzDispatcherAllocFree(f *testing.F) {
	f.Add(uint16(0), uint8(0))
	f.Add(uint16(1), uint8(1))
	f.Add(uint16(8), uint8(8))
	f.Add(uint16(128), uint8(16))
	f.Add(uint16(4096), uint8(32))

	d := DefaultDispatcher()

	f.Fuzz(func(t *testing.T, size uint16, alignment uint8) {
		align := uintptr(alignment)
		if align == 0 {
			align = 1
		}
		// Round the fuzzed alignment up to the nearest power of two, the
		// only kind of alignment unsafe.Alignof ever reports.
		p := uintptr(1)
		for p < align {
			p <<= 1
		}
		align = p

		ptr, err := d.Alloc(uintptr(size), align)
		require.NoError(t, err)
		require.NotNil(t, ptr)

		norm := d.normalize(uintptr(size), align)
		if d.poolBacked(norm, align) {
			h := headerOf(ptr, d.PageSize())
			require.Equal(t, poolSentinel, h.tag)
			require.EqualValues(t, norm, h.slotSize)
		} else {
			tagAddr := uintptr(ptr) - mallocTagSize
			tag := (*mallocTag)(unsafe.Pointer(tagAddr))
			require.Equal(t, mallocSentinel, tag.sentinel)
		}
		require.Zero(t, uintptr(ptr)%align)

		d.Free(ptr)
	})
}
