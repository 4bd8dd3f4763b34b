// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsNarrowerThanNativePointerSize(t *testing.T) {
	native := unsafe.Sizeof(uintptr(0))
	_, err := New(WithPointerSize(native - 1))
	require.Error(t, err)
}

func TestValidateAcceptsNativePointerSize(t *testing.T) {
	native := unsafe.Sizeof(uintptr(0))
	_, err := New(WithPointerSize(native))
	require.NoError(t, err)
}

func TestValidateRejectsZeroOrMisalignedThreshold(t *testing.T) {
	_, err := New(WithThreshold(0))
	require.Error(t, err)

	_, err = New(WithThreshold(1))
	require.Error(t, err)
}

func TestValidateRejectsPageTooSmallForHeader(t *testing.T) {
	_, err := New(WithPageSize(1))
	require.Error(t, err)
}

func TestValidateRejectsPageTooSmallForThreshold(t *testing.T) {
	_, err := New(WithPageSize(40), WithThreshold(128))
	require.Error(t, err)
}
