// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package curvemath provides the affine secp256k1 group operations the
// search engine is built on: scalar-to-point derivation, affine point
// addition, the GLV endomorphism constants and X multiplications, and the
// immutable generator multiples table shared read-only by every worker.
package curvemath
