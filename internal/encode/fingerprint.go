// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package encode

import (
	"encoding/binary"
)

// Fingerprint is the first five 32-bit words of the encoding-relevant byte
// string of a candidate: the big-endian X coordinate for the npub path, or
// the full 20-byte hash160 for the legacy paths.  Words are little-endian
// loads of that byte stream, so word 0 & 0xFFFF is the leading 16 bits.
type Fingerprint [5]uint32

// XFingerprint extracts the fingerprint words from a big-endian 32-byte X
// coordinate.
func XFingerprint(x *[32]byte) Fingerprint {
	var fp Fingerprint
	for i := range fp {
		fp[i] = binary.LittleEndian.Uint32(x[4*i:])
	}
	return fp
}

// HashFingerprint extracts the fingerprint words from a 20-byte hash160.
func HashFingerprint(h *[20]byte) Fingerprint {
	var fp Fingerprint
	for i := range fp {
		fp[i] = binary.LittleEndian.Uint32(h[4*i:])
	}
	return fp
}

// Bucket returns the 16-bit first-level lookup key of the fingerprint.
func (fp *Fingerprint) Bucket() uint16 {
	return uint16(fp[0])
}
