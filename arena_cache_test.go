// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaCacheAcquireCreatesWhenEmpty(t *testing.T) {
	d := newTestDispatcher(t)
	c := NewArenaCache(d)

	item := c.Acquire(1)
	require.NotNil(t, item)
	require.NotNil(t, item.Arena)
	require.EqualValues(t, 1, item.Key)
}

func TestArenaCacheReleaseThenAcquireReuses(t *testing.T) {
	d := newTestDispatcher(t)
	c := NewArenaCache(d)

	item := c.Acquire(7)
	item.Arena.Alloc(8, 1)
	arenaPtr := item.Arena

	c.Release(item)
	require.EqualValues(t, 0, item.Key)

	reused := c.Acquire(9)
	require.Same(t, arenaPtr, reused.Arena)
	require.EqualValues(t, 9, reused.Key)
}

func TestArenaCacheReleaseManyRecordsSizes(t *testing.T) {
	d := newTestDispatcher(t)
	c := NewArenaCache(d)

	items := make([]*CacheItem, 0, 3)
	for i := 0; i < 3; i++ {
		item := c.Acquire(5)
		item.Arena.Alloc(8, 1)
		items = append(items, item)
	}

	c.ReleaseMany(items)
	require.Equal(t, 8, c.typicalSize(5))
}

func TestArenaCacheTypicalSizeUnknownKey(t *testing.T) {
	c := NewArenaCache(newTestDispatcher(t))
	require.Equal(t, 0, c.typicalSize(999))
}

func TestArenaCacheNilDispatcherUsesDefault(t *testing.T) {
	c := NewArenaCache(nil)
	item := c.Acquire(1)
	require.NotNil(t, item.Arena.Alloc(8, 1))
}

// TestArenaCacheTypicalSizeIsolatesReusedArena checks that a key whose
// arena happens to be a hand-me-down from a much heavier previous key
// never has the donor key's leftover all-time peak attributed to it: a
// much lighter usage that never exceeds the donor's historical high
// water mark records zero growth, rather than inheriting the donor's 64
// bytes outright the way an unadjusted raw Peak() read would.
func TestArenaCacheTypicalSizeIsolatesReusedArena(t *testing.T) {
	d := newTestDispatcher(t)
	c := NewArenaCache(d)

	heavy := c.Acquire(100)
	for i := 0; i < 8; i++ {
		heavy.Arena.Alloc(8, 1)
	}
	c.Release(heavy)
	require.Equal(t, 64, c.typicalSize(100))

	light := c.Acquire(200)
	require.Same(t, heavy.Arena, light.Arena)
	light.Arena.Alloc(8, 1)
	c.Release(light)

	require.Equal(t, 0, c.typicalSize(200))
	require.Equal(t, 64, c.typicalSize(100))
}
