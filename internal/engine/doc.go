// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine implements the batched point generator at the heart of the
// search: a walker that sweeps contiguous private-key ranges one group at a
// time with a single grouped field inversion per group, expands every point
// into its endomorphism and symmetry candidates, and defines the hit-buffer
// wire format shared with accelerator workers.
package engine
