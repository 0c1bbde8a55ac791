// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fieldops

import (
	"errors"
	"testing"

	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// randFieldVal returns a random normalized field element.
func randFieldVal(t *testing.T) secp256k1.FieldVal {
	t.Helper()

	var buf [32]byte
	var f secp256k1.FieldVal
	for {
		rand.Read(buf[:])
		if overflow := f.SetBytes(&buf); overflow == 0 {
			return f
		}
	}
}

// TestBasicOps ensures the normalized wrappers agree with direct use of the
// underlying field arithmetic.
func TestBasicOps(t *testing.T) {
	for i := 0; i < 32; i++ {
		a := randFieldVal(t)
		b := randFieldVal(t)

		// (a + b) - b == a.
		var sum, back secp256k1.FieldVal
		Add(&sum, &a, &b)
		Sub(&back, &sum, &b)
		if !back.Equals(&a) {
			t.Fatalf("add/sub round trip failed for %v + %v", a, b)
		}

		// a + (-a) == 0.
		var negA, zero secp256k1.FieldVal
		Neg(&negA, &a)
		Add(&zero, &a, &negA)
		if !zero.IsZero() {
			t.Fatalf("a + (-a) != 0 for %v", a)
		}

		// a * a == a^2.
		var mul, sqr secp256k1.FieldVal
		Mul(&mul, &a, &a)
		Sqr(&sqr, &a)
		if !mul.Equals(&sqr) {
			t.Fatalf("mul/sqr mismatch for %v", a)
		}

		// a * a^-1 == 1.
		if a.IsZero() {
			continue
		}
		var inv, one, wantOne secp256k1.FieldVal
		Inv(&inv, &a)
		Mul(&one, &a, &inv)
		wantOne.SetInt(1)
		if !one.Equals(&wantOne) {
			t.Fatalf("a * inv(a) != 1 for %v", a)
		}
	}
}

// TestGroupInverse ensures the grouped inverse of a batch of random nonzero
// field elements yields the elementwise inverses, i.e. the elementwise
// product with the original input is the all-ones vector.
func TestGroupInverse(t *testing.T) {
	const batchSize = 1024

	orig := make([]secp256k1.FieldVal, batchSize)
	vals := make([]secp256k1.FieldVal, batchSize)
	for i := range orig {
		for {
			orig[i] = randFieldVal(t)
			if !orig[i].IsZero() {
				break
			}
		}
		vals[i].Set(&orig[i])
	}

	if err := GroupInverse(vals); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var one secp256k1.FieldVal
	one.SetInt(1)
	for i := range vals {
		var prod secp256k1.FieldVal
		Mul(&prod, &orig[i], &vals[i])
		if !prod.Equals(&one) {
			t.Fatalf("element %d: product with inverse is not one", i)
		}
	}
}

// TestGroupInverseSmallBatches exercises degenerate batch sizes.
func TestGroupInverseSmallBatches(t *testing.T) {
	// Empty batch is a no-op.
	if err := GroupInverse(nil); err != nil {
		t.Fatalf("unexpected error for empty batch: %v", err)
	}

	// Single element batch matches a direct inversion.
	a := randFieldVal(t)
	var want secp256k1.FieldVal
	Inv(&want, &a)
	vals := []secp256k1.FieldVal{a}
	if err := GroupInverse(vals); err != nil {
		t.Fatalf("unexpected error for single element batch: %v", err)
	}
	if !vals[0].Equals(&want) {
		t.Fatalf("single element batch: got %v, want %v", vals[0], want)
	}
}

// TestGroupInverseZeroElement ensures a batch containing a zero element fails
// with ErrArithDegenerate.
func TestGroupInverseZeroElement(t *testing.T) {
	vals := make([]secp256k1.FieldVal, 8)
	for i := range vals {
		vals[i] = randFieldVal(t)
	}
	vals[5].Zero()

	err := GroupInverse(vals)
	if !errors.Is(err, ErrArithDegenerate) {
		t.Fatalf("got error %v, want %v", err, ErrArithDegenerate)
	}
}
