// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestSizedPoolSetFillOnePool(t *testing.T) {
	s := newSizedPoolSet(testSlotSize, testPageSize)

	ptrs := make([]unsafe.Pointer, 0, 4)
	for i := 0; i < 4; i++ {
		ptr, err := s.alloc()
		require.NoError(t, err)
		require.NotNil(t, ptr)
		ptrs = append(ptrs, ptr)
	}
	require.Equal(t, 0, s.nonFullCount()) // the one pool is now full, untracked

	for _, p := range ptrs {
		require.NoError(t, s.free(p))
	}
}

func TestSizedPoolSetSpillsToSecondPool(t *testing.T) {
	s := newSizedPoolSet(testSlotSize, testPageSize)

	for i := 0; i < 4; i++ {
		_, err := s.alloc()
		require.NoError(t, err)
	}
	require.Equal(t, 0, s.nonFullCount())

	// A fifth allocation must create a new page.
	ptr, err := s.alloc()
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.Equal(t, 1, s.nonFullCount())
}

func TestSizedPoolSetInterleavedRecycling(t *testing.T) {
	s := newSizedPoolSet(testSlotSize, testPageSize)

	a, err := s.alloc()
	require.NoError(t, err)
	b, err := s.alloc()
	require.NoError(t, err)

	require.NoError(t, s.free(b))
	c, err := s.alloc()
	require.NoError(t, err)
	require.Equal(t, b, c) // most recently freed slot is reused first

	require.NoError(t, s.free(c))
	require.NoError(t, s.free(a))
}

func TestSizedPoolSetReleasesEmptyPool(t *testing.T) {
	s := newSizedPoolSet(testSlotSize, testPageSize)

	ptrs := make([]unsafe.Pointer, 0, 4)
	for i := 0; i < 4; i++ {
		ptr, err := s.alloc()
		require.NoError(t, err)
		ptrs = append(ptrs, ptr)
	}

	for _, p := range ptrs {
		require.NoError(t, s.free(p))
	}
	// Every slot in the single backing pool has been freed; the pool
	// should have been released immediately and nothing is tracked.
	require.Equal(t, 0, s.nonFullCount())
	require.Nil(t, s.cached)
}
