// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/math/uint256"

	"github.com/nostrkit/npubsearch/internal/curvemath"
	"github.com/nostrkit/npubsearch/internal/encode"
	"github.com/nostrkit/npubsearch/internal/engine"
	"github.com/nostrkit/npubsearch/internal/lookup"
)

// TestDeriveStartKey ensures seed stretching is deterministic and seed
// sensitive.
func TestDeriveStartKey(t *testing.T) {
	k1 := DeriveStartKey("test seed")
	k2 := DeriveStartKey("test seed")
	k3 := DeriveStartKey("test seed 2")
	if k1 != k2 {
		t.Fatal("same seed derived different keys")
	}
	if k1 == k3 {
		t.Fatal("different seeds derived the same key")
	}
}

// TestWorkerBases ensures worker cursors are spaced 2^64 apart.
func TestWorkerBases(t *testing.T) {
	s, err := New(Config{Patterns: []string{"qqqq"}, Seed: "spacing", Workers: 4})
	if err != nil {
		t.Fatal(err)
	}

	b0 := s.workerBase(0)
	b1 := s.workerBase(1)

	var off uint256.Uint256
	off.SetUint64(1).Lsh(64)
	b0.Add(&off)
	if !b0.Eq(&b1) {
		t.Fatal("worker 1 base is not worker 0 base + 2^64")
	}
}

// testScalar returns a ModNScalar with the given small value.
func testScalar(v uint64) secp256k1.ModNScalar {
	var buf [32]byte
	for i := 0; i < 8; i++ {
		buf[31-i] = byte(v >> (8 * i))
	}
	var k secp256k1.ModNScalar
	k.SetBytes(&buf)
	return k
}

// npubForScalar returns the npub encoding of k*G.
func npubForScalar(t *testing.T, k *secp256k1.ModNScalar) string {
	t.Helper()

	p := curvemath.PubKey(k)
	npub, err := encode.Npub(p.X.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return npub
}

// newTestVerifier builds a verifier over the given patterns writing to an
// in-memory sink.
func newTestVerifier(t *testing.T, patterns []string) (*Verifier, *lookup.Index, *bytes.Buffer) {
	t.Helper()

	idx, err := lookup.NewIndex(patterns)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	sink := &Sink{out: &buf}
	return NewVerifier(idx, sink, nil, true), idx, &buf
}

// TestVerifierScalarRecovery ensures every tag combination reconstructs a
// key whose point encodes to the matched pattern: positive and negated
// increments across all three endomorphism branches.
func TestVerifierScalarRecovery(t *testing.T) {
	base := testScalar(900000)

	tests := []struct {
		name string
		incr int32
		endo uint8
	}{
		{name: "plain", incr: 17, endo: 0},
		{name: "endo1", incr: 17, endo: 1},
		{name: "endo2", incr: 500, endo: 2},
		{name: "negated", incr: -17, endo: 0},
		{name: "negated endo2", incr: -400, endo: 2},
	}
	for _, test := range tests {
		// Reconstruct the key the verifier should report and derive the
		// pattern from its npub so the hit must verify.
		want := reconstructKey(&base, test.incr, test.endo)
		npub := npubForScalar(t, &want)
		pattern := encode.NpubSuffix(npub)[:10]

		verifier, idx, out := newTestVerifier(t, []string{pattern})

		p := curvemath.PubKey(&want)
		rec := engine.HitRecord{
			Incr:        test.incr,
			Endo:        test.endo,
			Fingerprint: encode.XFingerprint(p.X.Bytes()),
		}
		if !verifier.Verify(&base, &rec) {
			t.Fatalf("%s: hit did not verify", test.name)
		}
		if !idx.Patterns()[0].Found() {
			t.Fatalf("%s: pattern not marked found", test.name)
		}

		kb := want.Bytes()
		output := out.String()
		if !strings.Contains(output, "0x"+hex.EncodeToString(kb[:])) {
			t.Fatalf("%s: output lacks the reconstructed key:\n%s",
				test.name, spew.Sdump(output))
		}
		if !strings.Contains(output, "PubAddress: "+npub) {
			t.Fatalf("%s: output lacks the verified npub:\n%s",
				test.name, output)
		}
	}
}

// TestVerifierSymmetry ensures the curve symmetry identity holds through
// verification: the x-only encoding of k*G and (n-k)*G is identical, so a
// hit tagged on the negated branch verifies and reports the negated key.
func TestVerifierSymmetry(t *testing.T) {
	base := testScalar(123456)

	// The pattern comes from base+9, but the hit is tagged so the direct
	// reconstruction yields n-(base+9): its point has the same X, so the
	// verifier must still succeed.
	k := testScalar(123456 + 9)
	npub := npubForScalar(t, &k)
	pattern := encode.NpubSuffix(npub)[:10]

	verifier, _, out := newTestVerifier(t, []string{pattern})

	rec := engine.HitRecord{Incr: -9, Endo: 0}
	if !verifier.Verify(&base, &rec) {
		t.Fatal("symmetric hit did not verify")
	}

	// The reported key must be one of the two preimages of the X.
	neg := k
	neg.Negate()
	kb, nb := k.Bytes(), neg.Bytes()
	output := out.String()
	if !strings.Contains(output, hex.EncodeToString(kb[:])) &&
		!strings.Contains(output, hex.EncodeToString(nb[:])) {
		t.Fatalf("output lacks either preimage of the matched X:\n%s", output)
	}
}

// TestVerifierFalsePositive ensures a fabricated hit whose reconstruction
// does not match any pattern is dropped without marking anything found.
func TestVerifierFalsePositive(t *testing.T) {
	base := testScalar(42)

	verifier, idx, out := newTestVerifier(t,
		[]string{"qqqqqqqqqqqqqqqqqqqqqq"})

	rec := engine.HitRecord{Incr: 1, Endo: 0}
	if verifier.Verify(&base, &rec) {
		t.Fatal("bogus hit verified")
	}
	if idx.Patterns()[0].Found() {
		t.Fatal("bogus hit marked the pattern found")
	}
	if out.Len() != 0 {
		t.Fatalf("bogus hit produced output: %s", out.String())
	}
}

// TestTinySearch runs a complete single-worker search for the pattern
// npub1q with a fixed seed and stop-on-find: it must terminate with a
// verified hit whose npub starts with npub1q and whose reported private key
// regenerates that npub.
func TestTinySearch(t *testing.T) {
	s, err := New(Config{
		Patterns:   []string{"npub1q"},
		Seed:       "0000000000000000000000000000000000000000000000000000000000000001",
		Workers:    1,
		StopOnFind: true,
		MaxFound:   1,
	})
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	s.sink.out = &out

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s.Run(ctx)

	if ctx.Err() != nil {
		t.Fatal("search timed out without finding the pattern")
	}
	if s.FoundCount() == 0 {
		t.Fatal("search stopped with no verified hit")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 3 {
		t.Fatalf("unexpected output: %q", out.String())
	}
	npub := strings.TrimPrefix(lines[0], "PubAddress: ")
	if !strings.HasPrefix(npub, "npub1q") {
		t.Fatalf("hit %q does not start with npub1q", npub)
	}

	var hexLine string
	for _, l := range lines {
		if strings.HasPrefix(l, "Priv (HEX): 0x") {
			hexLine = strings.TrimPrefix(l, "Priv (HEX): 0x")
			break
		}
	}
	if hexLine == "" {
		t.Fatalf("no hex key in output: %q", out.String())
	}
	kb, err := hex.DecodeString(hexLine)
	if err != nil {
		t.Fatal(err)
	}
	var key secp256k1.ModNScalar
	if overflow := key.SetByteSlice(kb); overflow {
		t.Fatal("reported key overflows the group order")
	}
	if got := npubForScalar(t, &key); got != npub {
		t.Fatalf("reported key regenerates %q, want %q", got, npub)
	}
}

// TestParseStartPub exercises both accepted SEC1 forms and rejection of
// garbage.
func TestParseStartPub(t *testing.T) {
	k := testScalar(7)
	priv := secp256k1.PrivKeyFromBytes(func() []byte {
		b := k.Bytes()
		return b[:]
	}())
	pub := priv.PubKey()

	for _, ser := range [][]byte{pub.SerializeCompressed(), pub.SerializeUncompressed()} {
		p, err := ParseStartPub(hex.EncodeToString(ser))
		if err != nil {
			t.Fatal(err)
		}
		want := curvemath.PubKey(&k)
		if !p.X.Equals(&want.X) || !p.Y.Equals(&want.Y) {
			t.Fatal("parsed start pub does not match 7*G")
		}
	}

	if _, err := ParseStartPub("zz"); err == nil {
		t.Fatal("garbage start pub accepted")
	}
	if _, err := ParseStartPub("02ffff"); err == nil {
		t.Fatal("truncated start pub accepted")
	}
}
