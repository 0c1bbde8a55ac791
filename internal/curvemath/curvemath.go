// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package curvemath

import (
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/nostrkit/npubsearch/internal/fieldops"
)

// Point is an affine secp256k1 point.  The zero value is the point at
// infinity.
type Point struct {
	X secp256k1.FieldVal
	Y secp256k1.FieldVal
}

// IsInfinity returns whether or not the point is the point at infinity.
func (p *Point) IsInfinity() bool {
	return p.X.IsZero() && p.Y.IsZero()
}

// hexToFieldVal converts the passed big-endian hex string into a field value.
// It only differs from the exported secp256k1 parsing in that it panics on an
// error since it is only used on package constants.
func hexToFieldVal(s string) secp256k1.FieldVal {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	var f secp256k1.FieldVal
	if overflow := f.SetByteSlice(b); overflow {
		panic("hex in source file overflows the field: " + s)
	}
	return f
}

// hexToModNScalar converts the passed big-endian hex string into a scalar
// modulo the group order.  It panics on invalid input since it is only used
// on package constants.
func hexToModNScalar(s string) secp256k1.ModNScalar {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(b); overflow {
		panic("hex in source file overflows the scalar: " + s)
	}
	return k
}

// Endomorphism constants.
//
// Beta is a nontrivial cube root of unity in the base field and Lambda the
// matching cube root of unity in the scalar field, such that for any point
// P = k*G, (Beta*P.x, P.y) = (Lambda*k)*G.  Since beta^3 = 1 mod p, beta^2 is
// also beta^-1, giving a second map at the cost of one more multiplication
// (and likewise lambda^2 = lambda^-1 mod n).
var (
	Beta    = hexToFieldVal("7ae96a2b657c07106e64479eac3434e99cf0497512f58995c1396c28719501ee")
	Beta2   = hexToFieldVal("851695d49a83f8ef919bb86153cbcb16630fb68aed0a766a3ec693d68e6afa40")
	Lambda  = hexToModNScalar("5363ad4cc05c30e0a5261c028812645a122e22ea20816678df02967c1b23bd72")
	Lambda2 = hexToModNScalar("ac9c52b33fa3cf1f5ad9e3fd77ed9ba4a880b9fc8ec739c2e0cfc810b51283ce")
)

// MulBeta sets r to beta*x mod p.
func MulBeta(r, x *secp256k1.FieldVal) *secp256k1.FieldVal {
	return fieldops.Mul(r, x, &Beta)
}

// MulBeta2 sets r to beta^2*x mod p.
func MulBeta2(r, x *secp256k1.FieldVal) *secp256k1.FieldVal {
	return fieldops.Mul(r, x, &Beta2)
}

// PubKey returns the affine public point k*G.  It delegates to the library
// scalar multiplication since it only runs off the hot path, where
// correctness trumps speed.
func PubKey(k *secp256k1.ModNScalar) Point {
	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &result)
	result.ToAffine()

	var p Point
	p.X.Set(&result.X)
	p.Y.Set(&result.Y)
	return p
}

// Add returns p + q for two affine points; equal points are doubled.  Field
// work is delegated to fieldops; the caller is responsible for not passing a
// point and its negation (the slope is undefined there).
func Add(p, q *Point) Point {
	switch {
	case p.IsInfinity():
		return *q
	case q.IsInfinity():
		return *p
	case p.X.Equals(&q.X) && p.Y.Equals(&q.Y):
		return Double(p)
	}

	// s = (q.y - p.y) / (q.x - p.x)
	var dx, dy, s secp256k1.FieldVal
	fieldops.Sub(&dx, &q.X, &p.X)
	fieldops.Sub(&dy, &q.Y, &p.Y)
	fieldops.Inv(&dx, &dx)
	fieldops.Mul(&s, &dy, &dx)

	// rx = s^2 - p.x - q.x
	// ry = s*(p.x - rx) - p.y
	var r Point
	var t secp256k1.FieldVal
	fieldops.Sqr(&r.X, &s)
	fieldops.Sub(&r.X, &r.X, &p.X)
	fieldops.Sub(&r.X, &r.X, &q.X)
	fieldops.Sub(&t, &p.X, &r.X)
	fieldops.Mul(&t, &s, &t)
	fieldops.Sub(&r.Y, &t, &p.Y)
	return r
}

// Double returns 2*p for a non-infinity affine point.
func Double(p *Point) Point {
	if p.IsInfinity() {
		return *p
	}

	// s = 3*p.x^2 / 2*p.y  (a = 0 for secp256k1)
	var sq, num, den, s secp256k1.FieldVal
	fieldops.Sqr(&sq, &p.X)
	fieldops.Add(&num, &sq, &sq)
	fieldops.Add(&num, &num, &sq)
	fieldops.Add(&den, &p.Y, &p.Y)
	fieldops.Inv(&den, &den)
	fieldops.Mul(&s, &num, &den)

	// rx = s^2 - 2*p.x
	// ry = s*(p.x - rx) - p.y
	var r Point
	var t secp256k1.FieldVal
	fieldops.Sqr(&r.X, &s)
	fieldops.Sub(&r.X, &r.X, &p.X)
	fieldops.Sub(&r.X, &r.X, &p.X)
	fieldops.Sub(&t, &p.X, &r.X)
	fieldops.Mul(&t, &s, &t)
	fieldops.Sub(&r.Y, &t, &p.Y)
	return r
}

// Negate returns -p, i.e. the point with the same X and negated Y.
func Negate(p *Point) Point {
	var r Point
	r.X.Set(&p.X)
	fieldops.Neg(&r.Y, &p.Y)
	return r
}

// Generator returns the affine generator point G.
func Generator() Point {
	var one secp256k1.ModNScalar
	one.SetInt(1)
	return PubKey(&one)
}

// Next returns p + G.
func Next(p *Point) Point {
	g := Generator()
	return Add(p, &g)
}
