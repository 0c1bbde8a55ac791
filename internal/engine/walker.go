// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/nostrkit/npubsearch/internal/curvemath"
	"github.com/nostrkit/npubsearch/internal/fieldops"
)

// GroupSize is the number of consecutive scalars processed per grouped
// inversion.  It must be even; half the group is swept on each side of the
// center point.
const GroupSize = 1024

// Tag identifies which of the expanded candidates of a group point a value
// belongs to, with enough information for the verifier to reconstruct the
// exact originating scalar.
type Tag struct {
	// Incr is the non-negative offset of the point's scalar from the
	// group base scalar.
	Incr uint32

	// Endo is the endomorphism branch: 0 for the point itself, 1 for the
	// beta map, 2 for the beta^2 map.
	Endo uint8

	// Neg indicates the Y-negated branch: the candidate corresponds to
	// the scalar n - (base + Incr) rather than base + Incr.
	Neg bool
}

// Emit receives one candidate X (already multiplied through the
// endomorphism branch) together with the point's Y and the candidate tag.
// The engine calls it synchronously from the hot loop; implementations must
// not retain the field value pointers past the call.
type Emit func(x, y *secp256k1.FieldVal, tag Tag)

// Config parameterizes a Walker.
type Config struct {
	// Table is the shared read-only generator multiples table.  It must
	// hold at least GroupSize/2 points and its stride must be
	// GroupSize*G.
	Table *curvemath.GenTable

	// Symmetric enables the Y-negation candidates, doubling the
	// expansion from three to six per scalar.  The x-only npub path
	// leaves this off since negation does not change X; the verifier
	// recovers the negated scalar through the curve symmetry instead.
	Symmetric bool

	// StartPub, when non-nil, offsets every generated point: candidates
	// become (k)*G + StartPub and hits yield partial private keys.
	StartPub *curvemath.Point
}

// Walker generates the points of consecutive scalar groups using one
// grouped inversion per group.  It owns no shared state; each worker runs
// its own walker.
type Walker struct {
	cfg    Config
	startP curvemath.Point
	half   int

	// Scratch buffers reused across groups.
	dx   []secp256k1.FieldVal
	negY secp256k1.FieldVal
	ex   [3]secp256k1.FieldVal
}

// NewWalker returns a walker positioned so that its next group covers the
// scalars [base, base+GroupSize).
func NewWalker(cfg Config, base *secp256k1.ModNScalar) *Walker {
	w := &Walker{
		cfg:  cfg,
		half: GroupSize / 2,
		dx:   make([]secp256k1.FieldVal, GroupSize/2+1),
	}
	w.Reset(base)
	return w
}

// Reset repositions the walker so that its next group covers the scalars
// [base, base+GroupSize).  This recomputes the center point from scratch
// and is used at startup, after a rekey, and to resynchronize after a
// degenerate group.
func (w *Walker) Reset(base *secp256k1.ModNScalar) {
	center := *base
	var halfScalar secp256k1.ModNScalar
	halfScalar.SetInt(uint32(w.half))
	center.Add(&halfScalar)

	w.startP = curvemath.PubKey(&center)
	if w.cfg.StartPub != nil {
		w.startP = curvemath.Add(&w.startP, w.cfg.StartPub)
	}
}

// expand feeds the three (or six, in symmetric mode) candidates of a point
// to emit in the documented order: (x,y) then the two endomorphism maps,
// then the same trio with Y negated.
func (w *Walker) expand(p *curvemath.Point, incr uint32, emit Emit) {
	curvemath.MulBeta(&w.ex[1], &p.X)
	curvemath.MulBeta2(&w.ex[2], &p.X)

	emit(&p.X, &p.Y, Tag{Incr: incr, Endo: 0})
	emit(&w.ex[1], &p.Y, Tag{Incr: incr, Endo: 1})
	emit(&w.ex[2], &p.Y, Tag{Incr: incr, Endo: 2})
	if !w.cfg.Symmetric {
		return
	}

	fieldops.Neg(&w.negY, &p.Y)
	emit(&p.X, &w.negY, Tag{Incr: incr, Endo: 0, Neg: true})
	emit(&w.ex[1], &w.negY, Tag{Incr: incr, Endo: 1, Neg: true})
	emit(&w.ex[2], &w.negY, Tag{Incr: incr, Endo: 2, Neg: true})
}

// CandidatesPerScalar returns how many candidates the walker emits per
// scalar under its configuration.
func (w *Walker) CandidatesPerScalar() uint64 {
	if w.cfg.Symmetric {
		return 6
	}
	return 3
}

// Group sweeps one group: it emits the expanded candidates for every scalar
// base+i, i in [0, GroupSize), and advances the walker's center to the next
// group.  Emission order is the center scalar first, then the symmetric
// pairs working outward, then the group's first scalar.
//
// The returned error is only ever the (practically impossible) grouped
// inverse degeneration, in which case nothing was emitted, the center was
// not advanced, and the caller must resynchronize by advancing its cursor a
// single scalar and calling Reset.
func (w *Walker) Group(emit Emit) error {
	table := w.cfg.Table.Points
	half := w.half

	// Delta X between every table point and the center, the final two
	// entries covering the group's first scalar and the transition to the
	// next center.
	for i := 0; i < half; i++ {
		fieldops.Sub(&w.dx[i], &table[i].X, &w.startP.X)
	}
	fieldops.Sub(&w.dx[half], &w.cfg.Table.Stride.X, &w.startP.X)

	if err := fieldops.GroupInverse(w.dx); err != nil {
		log.Debugf("Grouped inversion degenerated: %v", err)
		return err
	}

	// Center scalar base + half.
	w.expand(&w.startP, uint32(half), emit)

	// Symmetric pairs: startP +/- (i+1)*G share dx[i] since negating a
	// point leaves its X untouched.
	var slope, sq, tmp secp256k1.FieldVal
	for i := 0; i < half-1; i++ {
		gi := &table[i]

		// P = startP + (i+1)*G.
		fieldops.Sub(&slope, &gi.Y, &w.startP.Y)
		fieldops.Mul(&slope, &slope, &w.dx[i])
		fieldops.Sqr(&sq, &slope)
		var pp curvemath.Point
		fieldops.Sub(&pp.X, &sq, &w.startP.X)
		fieldops.Sub(&pp.X, &pp.X, &gi.X)
		fieldops.Sub(&tmp, &gi.X, &pp.X)
		fieldops.Mul(&tmp, &slope, &tmp)
		fieldops.Sub(&pp.Y, &tmp, &gi.Y)
		w.expand(&pp, uint32(half+i+1), emit)

		// P = startP - (i+1)*G, reusing the same inverted delta.
		fieldops.Neg(&slope, &gi.Y)
		fieldops.Sub(&slope, &slope, &w.startP.Y)
		fieldops.Mul(&slope, &slope, &w.dx[i])
		fieldops.Sqr(&sq, &slope)
		var pn curvemath.Point
		fieldops.Sub(&pn.X, &sq, &w.startP.X)
		fieldops.Sub(&pn.X, &pn.X, &gi.X)
		fieldops.Sub(&tmp, &gi.X, &pn.X)
		fieldops.Mul(&tmp, &slope, &tmp)
		fieldops.Add(&pn.Y, &tmp, &gi.Y)
		w.expand(&pn, uint32(half-i-1), emit)
	}

	// Group's first scalar: startP - half*G.
	{
		gi := &table[half-1]
		fieldops.Neg(&slope, &gi.Y)
		fieldops.Sub(&slope, &slope, &w.startP.Y)
		fieldops.Mul(&slope, &slope, &w.dx[half-1])
		fieldops.Sqr(&sq, &slope)
		var pn curvemath.Point
		fieldops.Sub(&pn.X, &sq, &w.startP.X)
		fieldops.Sub(&pn.X, &pn.X, &gi.X)
		fieldops.Sub(&tmp, &gi.X, &pn.X)
		fieldops.Mul(&tmp, &slope, &tmp)
		fieldops.Add(&pn.Y, &tmp, &gi.Y)
		w.expand(&pn, 0, emit)
	}

	// Transition: next center is startP + GroupSize*G.
	{
		stride := &w.cfg.Table.Stride
		fieldops.Sub(&slope, &stride.Y, &w.startP.Y)
		fieldops.Mul(&slope, &slope, &w.dx[half])
		fieldops.Sqr(&sq, &slope)
		var next curvemath.Point
		fieldops.Sub(&next.X, &sq, &w.startP.X)
		fieldops.Sub(&next.X, &next.X, &stride.X)
		fieldops.Sub(&tmp, &stride.X, &next.X)
		fieldops.Mul(&tmp, &slope, &tmp)
		fieldops.Sub(&next.Y, &tmp, &stride.Y)
		w.startP = next
	}

	return nil
}
