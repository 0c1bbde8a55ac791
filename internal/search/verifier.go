// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/nostrkit/npubsearch/internal/curvemath"
	"github.com/nostrkit/npubsearch/internal/encode"
	"github.com/nostrkit/npubsearch/internal/engine"
	"github.com/nostrkit/npubsearch/internal/lookup"
)

// Verifier re-derives every hot-loop hit from scratch.  A hit may be a
// fingerprint collision, so nothing is reported until the exact private key
// has been reconstructed from its tag and the full encoding rechecked
// against the matched pattern.
type Verifier struct {
	idx           *lookup.Index
	sink          *Sink
	startPub      *curvemath.Point
	wifCompressed bool
}

// NewVerifier returns a verifier reporting through the given sink.
func NewVerifier(idx *lookup.Index, sink *Sink, startPub *curvemath.Point, wifCompressed bool) *Verifier {
	return &Verifier{
		idx:           idx,
		sink:          sink,
		startPub:      startPub,
		wifCompressed: wifCompressed,
	}
}

// reconstructKey applies the hit tag to the group base scalar:
//
//	k = base + incr            (positive branch)
//	k = n - (base + |incr|)    (negated branch; incr arrives negated)
//	k = k * lambda^endo mod n
func reconstructKey(base *secp256k1.ModNScalar, incr int32, endo uint8) secp256k1.ModNScalar {
	k := *base
	var off secp256k1.ModNScalar
	if incr < 0 {
		off.SetInt(uint32(-incr))
		k.Add(&off)
		k.Negate()
	} else {
		off.SetInt(uint32(incr))
		k.Add(&off)
	}
	switch endo {
	case 1:
		k.Mul(&curvemath.Lambda)
	case 2:
		k.Mul(&curvemath.Lambda2)
	}
	return k
}

// pointFor computes the candidate point the hot loop claims to have seen
// for the reconstructed key, accounting for the optional starting public
// key, whose X and Y must be adjusted through the same endomorphism and
// symmetry branches the key went through.
func (v *Verifier) pointFor(k *secp256k1.ModNScalar, incr int32, endo uint8) curvemath.Point {
	p := curvemath.PubKey(k)
	if v.startPub == nil {
		return p
	}

	sp := *v.startPub
	if incr < 0 {
		sp = curvemath.Negate(&sp)
	}
	switch endo {
	case 1:
		curvemath.MulBeta(&sp.X, &sp.X)
	case 2:
		curvemath.MulBeta2(&sp.X, &sp.X)
	}
	return curvemath.Add(&p, &sp)
}

// Verify recomputes the hit record against the group base scalar it was
// produced under.  On success the matched pattern is marked found and the
// verified key emitted to the sink; a mismatch is a fingerprint collision
// and is logged at debug level and dropped.  The return reports whether the
// hit verified.
func (v *Verifier) Verify(base *secp256k1.ModNScalar, rec *engine.HitRecord) bool {
	k := reconstructKey(base, rec.Incr, rec.Endo)
	p := v.pointFor(&k, rec.Incr, rec.Endo)

	xb := p.X.Bytes()
	npub, err := encode.Npub(xb)
	if err != nil {
		log.Errorf("npub encoding failed during verification: %v", err)
		return false
	}

	pat := v.idx.Match(firstWord(xb), encode.NpubSuffix(npub), false)
	if pat == nil {
		// The key may be the opposite branch: the same X belongs to
		// n-k, whose Y is negated.
		k.Negate()
		p = v.pointForNegated(&k, rec.Incr, rec.Endo)
		xb = p.X.Bytes()
		npub, err = encode.Npub(xb)
		if err != nil {
			log.Errorf("npub encoding failed during verification: %v", err)
			return false
		}
		pat = v.idx.Match(firstWord(xb), encode.NpubSuffix(npub), false)
		if pat == nil {
			log.Debugf("False positive dropped: thread %d incr %d endo %d",
				rec.ThreadID, rec.Incr, rec.Endo)
			return false
		}
	}

	pat.MarkFound()

	kb := k.Bytes()
	v.sink.Write(&Result{
		PubAddress: npub,
		PrivWIF:    encode.WIF(&k, v.wifCompressed),
		PrivHex:    hex.EncodeToString(kb[:]),
		Partial:    v.startPub != nil,
	})
	return true
}

// pointForNegated mirrors pointFor for the opposite-branch retry, negating
// the starting public key contribution as well.
func (v *Verifier) pointForNegated(k *secp256k1.ModNScalar, incr int32, endo uint8) curvemath.Point {
	p := curvemath.PubKey(k)
	if v.startPub == nil {
		return p
	}

	sp := *v.startPub
	if incr >= 0 {
		// The retry flips the symmetry branch relative to pointFor.
		sp = curvemath.Negate(&sp)
	}
	switch endo {
	case 1:
		curvemath.MulBeta(&sp.X, &sp.X)
	case 2:
		curvemath.MulBeta2(&sp.X, &sp.X)
	}
	return curvemath.Add(&p, &sp)
}

// firstWord returns the first little-endian fingerprint word of a 32-byte
// big-endian X coordinate.
func firstWord(x *[32]byte) uint32 {
	fp := encode.XFingerprint(x)
	return fp[0]
}
