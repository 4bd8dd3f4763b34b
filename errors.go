// SPDX-License-Identifier: Apache-2.0

package arena

import "errors"

// ErrOutOfMemory indicates that the OS refused a page on the small path.
// PoolCapacity also returns it for a size that routes to the large path.
// The large path itself never returns it: its buffers come from make, and
// a failed Go heap allocation ends the process. It is never retried and
// never logged.
var ErrOutOfMemory = errors.New("arena: out of memory")
