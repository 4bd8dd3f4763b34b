// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// testSlotSize and testPageSize give a small, deterministic page capacity
// (4 slots) so tests can exercise fill/spill without real OS-page-sized
// allocations.
const (
	testSlotSize = uintptr(8)
	testPageSize = uintptr(64) // 32-byte header + 4 slots of 8 bytes
)

func TestPoolCapacity(t *testing.T) {
	require.EqualValues(t, 4, poolCapacity(testSlotSize, testPageSize))
	require.EqualValues(t, 0, poolCapacity(0, testPageSize))
	require.EqualValues(t, 0, poolCapacity(testSlotSize, poolHeaderSize))
}

func TestNewPoolPageLinksFreeList(t *testing.T) {
	h, err := newPoolPage(testSlotSize, testPageSize)
	require.NoError(t, err)
	defer h.release(testPageSize)

	require.Equal(t, poolSentinel, h.tag)
	require.EqualValues(t, testSlotSize, h.slotSize)
	require.EqualValues(t, 4, h.capacity)
	require.True(t, h.empty())
	require.False(t, h.full())

	// Walk the free list; it should visit exactly capacity slots.
	seen := 0
	for p := h.free; p != nil; {
		seen++
		p = *(*unsafe.Pointer)(p)
	}
	require.Equal(t, 4, seen)
}

func TestPoolAllocateDeallocateLIFO(t *testing.T) {
	h, err := newPoolPage(testSlotSize, testPageSize)
	require.NoError(t, err)
	defer h.release(testPageSize)

	a := h.allocate()
	b := h.allocate()
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotEqual(t, a, b)
	require.EqualValues(t, 2, h.occupied)

	h.deallocate(b)
	require.EqualValues(t, 1, h.occupied)

	// The slot handed back is reused before any slot never touched.
	c := h.allocate()
	require.Equal(t, b, c)
}

func TestPoolExhaustion(t *testing.T) {
	h, err := newPoolPage(testSlotSize, testPageSize)
	require.NoError(t, err)
	defer h.release(testPageSize)

	for i := 0; i < 4; i++ {
		require.NotNil(t, h.allocate())
	}
	require.True(t, h.full())
	require.Nil(t, h.allocate())
}

func TestHeaderOfRecoversPage(t *testing.T) {
	h, err := newPoolPage(testSlotSize, testPageSize)
	require.NoError(t, err)
	defer h.release(testPageSize)

	slot := h.allocate()
	require.Equal(t, h, headerOf(slot, testPageSize))
}
