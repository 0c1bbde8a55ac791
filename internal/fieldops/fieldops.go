// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fieldops

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// The FieldVal arithmetic in dcrec/secp256k1 leaves magnitude management to
// the caller for speed.  Everything in this package takes normalized inputs
// and produces normalized outputs so callers never have to reason about
// magnitudes across package boundaries.

// Add sets r = a + b mod p.
func Add(r, a, b *secp256k1.FieldVal) *secp256k1.FieldVal {
	r.Add2(a, b).Normalize()
	return r
}

// Sub sets r = a - b mod p.
func Sub(r, a, b *secp256k1.FieldVal) *secp256k1.FieldVal {
	var negB secp256k1.FieldVal
	negB.Set(b).Negate(1)
	r.Add2(a, &negB).Normalize()
	return r
}

// Neg sets r = -a mod p.
func Neg(r, a *secp256k1.FieldVal) *secp256k1.FieldVal {
	r.Set(a).Negate(1).Normalize()
	return r
}

// Mul sets r = a * b mod p.
func Mul(r, a, b *secp256k1.FieldVal) *secp256k1.FieldVal {
	r.Mul2(a, b).Normalize()
	return r
}

// Sqr sets r = a^2 mod p.
func Sqr(r, a *secp256k1.FieldVal) *secp256k1.FieldVal {
	r.SquareVal(a).Normalize()
	return r
}

// Inv sets r = a^-1 mod p.  The result for a zero input is unspecified, per
// the contract of the underlying field inversion.
func Inv(r, a *secp256k1.FieldVal) *secp256k1.FieldVal {
	r.Set(a).Inverse().Normalize()
	return r
}

// GroupInverse replaces every element of vals with its modular inverse using
// a single true field inversion plus roughly 3N multiplications (the
// Montgomery trick): build the running product, invert the total, and walk
// back unwinding one element at a time.
//
// All inputs must be normalized and nonzero.  A zero element poisons the
// running product, so the whole batch fails with ErrArithDegenerate and vals
// is left unmodified.  The probability of a zero delta in the group sweep is
// on the order of 2^-256 per element, so in practice this error never fires.
func GroupInverse(vals []secp256k1.FieldVal) error {
	if len(vals) == 0 {
		return nil
	}

	// Running products: prods[i] = vals[0] * ... * vals[i].
	prods := make([]secp256k1.FieldVal, len(vals))
	prods[0].Set(&vals[0])
	for i := 1; i < len(vals); i++ {
		prods[i].Mul2(&prods[i-1], &vals[i])
	}
	if prods[len(vals)-1].Normalize().IsZero() {
		for i := range vals {
			if vals[i].IsZero() {
				str := fmt.Sprintf("grouped inverse input %d is zero", i)
				return makeError(ErrArithDegenerate, str)
			}
		}
		// Unreachable for normalized inputs.
		return makeError(ErrArithDegenerate, "grouped inverse product is zero")
	}

	// Invert the total product once, then unwind:
	//   inv(vals[i]) = acc * prods[i-1], acc *= vals[i].
	var acc secp256k1.FieldVal
	acc.Set(&prods[len(vals)-1]).Inverse()
	for i := len(vals) - 1; i > 0; i-- {
		var tmp secp256k1.FieldVal
		tmp.Mul2(&acc, &prods[i-1]).Normalize()
		acc.Mul(&vals[i])
		vals[i].Set(&tmp)
	}
	vals[0].Set(acc.Normalize())
	return nil
}
