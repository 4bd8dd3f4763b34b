// SPDX-License-Identifier: Apache-2.0

// Package arena implements a small-object pool allocator alongside the
// package's original bump-and-reset arenas.
//
// A Dispatcher routes each allocation request to a fixed-size-slot pool
// keyed by the request's normalized size, or to the Go heap when the
// normalized size exceeds its threshold. Freeing a pointer recovers the
// owning pool by masking the pointer down to its page boundary, and
// recognizes a heap (large-path) allocation by the sentinel tag written
// just before it — no side table is needed either way.
//
// DefaultDispatcher returns a process-wide Dispatcher built once on first
// use. Most callers that want pool-backed semantics behind the package's
// existing Arena interface should use NewPoolArena instead of calling a
// Dispatcher directly.
package arena
