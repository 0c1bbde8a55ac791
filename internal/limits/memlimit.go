// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package limits provides tuning of process resource limits.
package limits

import "runtime/debug"

// SetMemoryLimit configures the runtime to use the provided value as a soft
// memory limit.  The group sweeps preallocate their scratch buffers, so the
// process working set is small and stable; the limit mostly keeps the
// collector from overallocating during pattern index construction with very
// large pattern sets.
func SetMemoryLimit(limit int64) {
	debug.SetMemoryLimit(limit)
}
