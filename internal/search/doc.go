// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package search drives the key search: it derives the starting key from the
// seed, owns the worker threads that sweep scalar groups through the engine,
// screens candidates through the lookup index, re-verifies every hit from
// scratch before trusting it, and serializes verified keys to the output
// sink.
package search
