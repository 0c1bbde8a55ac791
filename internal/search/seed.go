// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"github.com/decred/dcrd/crypto/rand"
	"golang.org/x/crypto/pbkdf2"
)

// seedSalt is the fixed PBKDF2 salt protecting the seed against precomputed
// seed-search attacks.
const seedSalt = "VanitySearch"

// seedIterations is the PBKDF2 iteration count.
const seedIterations = 2048

// DeriveStartKey stretches the seed into the 32-byte starting key:
// PBKDF2-HMAC-SHA512 with the fixed salt over 2048 iterations to 64 bytes,
// then SHA-256 down to the key size.
func DeriveStartKey(seed string) [32]byte {
	stretched := pbkdf2.Key([]byte(seed), []byte(seedSalt), seedIterations,
		64, sha512.New)
	return sha256.Sum256(stretched)
}

// RandomSeed returns a fresh hex-encoded 32-byte seed from the system
// entropy source.
func RandomSeed() string {
	var buf [32]byte
	rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
