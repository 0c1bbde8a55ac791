// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package encode

import (
	"github.com/decred/dcrd/bech32"
)

const (
	// NpubHRP is the human-readable prefix of the Nostr public key
	// encoding.
	NpubHRP = "npub"

	// Charset is the Bech32 data alphabet.  Patterns are restricted to
	// these characters (plus wildcards).
	Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
)

// charsetRev maps an ASCII byte to its 5-bit Bech32 value, or 0xff when the
// byte is not part of the alphabet.
var charsetRev = func() [256]byte {
	var rev [256]byte
	for i := range rev {
		rev[i] = 0xff
	}
	for i := 0; i < len(Charset); i++ {
		rev[Charset[i]] = byte(i)
	}
	return rev
}()

// CharsetIndex returns the 5-bit value of a Bech32 data character and
// whether the byte belongs to the alphabet.
func CharsetIndex(c byte) (byte, bool) {
	v := charsetRev[c]
	return v, v != 0xff
}

// Npub encodes the big-endian 32-byte X coordinate as a Nostr npub string,
// i.e. Bech32 under the npub HRP: 8-bit groups are regrouped into 5-bit
// groups MSB first with the final partial group zero padded, then mapped
// through the Bech32 alphabet and checksummed.
func Npub(x *[32]byte) (string, error) {
	conv, err := bech32.ConvertBits(x[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(NpubHRP, conv)
}

// NpubSuffix returns the data portion of an npub string: everything after
// the "npub1" HRP and separator.  Pattern matching is performed against this
// suffix only.
func NpubSuffix(npub string) string {
	const sep = NpubHRP + "1"
	if len(npub) >= len(sep) && npub[:len(sep)] == sep {
		return npub[len(sep):]
	}
	return npub
}

// NpubDataChars writes the 52 Bech32 data characters of the X coordinate to
// dst without computing the checksum.  This is the hot-path form: the six
// trailing checksum characters can never participate in a prefix match
// against a pattern of at most 52 data characters.
func NpubDataChars(x *[32]byte, dst []byte) {
	// 256 bits regroup into 51 full 5-bit groups plus 1 trailing bit
	// padded with four zero bits.
	var acc uint
	var bits uint
	n := 0
	for _, b := range x {
		acc = acc<<8 | uint(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			dst[n] = Charset[(acc>>bits)&0x1f]
			n++
		}
	}
	dst[n] = Charset[(acc<<(5-bits))&0x1f]
}

// NpubDataLen is the number of Bech32 data characters encoding 32 bytes.
const NpubDataLen = 52
