// SPDX-License-Identifier: Apache-2.0

package arena

import "os"

// PageSize returns the size, in bytes, of one OS page on the host.
func PageSize() int {
	return os.Getpagesize()
}
