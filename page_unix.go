//go:build unix

// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// acquirePage maps one anonymous, zero-filled, page-aligned region of
// size bytes directly from the kernel. Anonymous mmap regions are
// page-aligned by construction, which is exactly what the
// pointer-to-pool recovery scheme needs to mask a slot pointer back to
// its owning header.
func acquirePage(size uintptr) (unsafe.Pointer, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(unsafe.SliceData(data)), nil
}

// releasePage unmaps a region previously returned by acquirePage.
func releasePage(ptr unsafe.Pointer, size uintptr) error {
	b := unsafe.Slice((*byte)(ptr), int(size))
	return unix.Munmap(b)
}
