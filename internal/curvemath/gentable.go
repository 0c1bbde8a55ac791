// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package curvemath

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// GenTable holds precomputed small multiples of the generator shared
// read-only across all workers.  It is built once at startup and never
// mutated afterwards.
type GenTable struct {
	// Points[i] is (i+1)*G for i in [0, half).
	Points []Point

	// Stride is (2*half)*G, the point added to a group's center to reach
	// the next group's center.
	Stride Point
}

// NewGenTable computes the table of generator multiples used by the group
// walker: half points (1*G .. half*G) plus the group stride (2*half)*G.
// Every entry is computed by Jacobian addition and converted to affine;
// this runs once at startup so the library operations are plenty fast.
func NewGenTable(half int) *GenTable {
	var one secp256k1.ModNScalar
	one.SetInt(1)

	var g, acc secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&one, &g)
	acc.Set(&g)

	table := &GenTable{Points: make([]Point, half)}
	for i := 0; i < half; i++ {
		var affine secp256k1.JacobianPoint
		affine.Set(&acc)
		affine.ToAffine()
		table.Points[i].X.Set(&affine.X)
		table.Points[i].Y.Set(&affine.Y)

		secp256k1.AddNonConst(&acc, &g, &acc)
	}

	// After the loop acc is (half+1)*G.  The stride is (2*half)*G, i.e.
	// double the last table entry.
	last := table.Points[half-1]
	table.Stride = Double(&last)
	return table
}
