// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package encode

import (
	"crypto/sha256"

	"github.com/decred/base58"
	"github.com/decred/dcrd/bech32"
	"github.com/decred/dcrd/crypto/ripemd160"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Legacy Bitcoin mainnet constants for the hash-based encodings.
const (
	p2pkhVersion = 0x00
	p2shVersion  = 0x05
	wifVersion   = 0x80
	witnessHRP   = "bc"
)

// SerializePoint returns the SEC1 serialization of the affine point
// (0x02/0x03 || X when compressed, 0x04 || X || Y otherwise).
func SerializePoint(x, y *secp256k1.FieldVal, compressed bool) []byte {
	pub := secp256k1.NewPublicKey(x, y)
	if compressed {
		return pub.SerializeCompressed()
	}
	return pub.SerializeUncompressed()
}

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) [20]byte {
	s := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(s[:])

	var h [20]byte
	copy(h[:], r.Sum(nil))
	return h
}

// checksum returns the first four bytes of the double SHA-256 of b.
func checksum(b []byte) [4]byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])

	var cksum [4]byte
	copy(cksum[:], second[:4])
	return cksum
}

// base58Check encodes a single version byte plus payload with the standard
// 4-byte double SHA-256 checksum appended.
func base58Check(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+4)
	buf = append(buf, version)
	buf = append(buf, payload...)
	cksum := checksum(buf)
	buf = append(buf, cksum[:]...)
	return base58.Encode(buf)
}

// AddressP2PKH returns the pay-to-pubkey-hash Base58Check address for the
// given hash160.
func AddressP2PKH(h *[20]byte) string {
	return base58Check(p2pkhVersion, h[:])
}

// AddressP2SH returns the P2WPKH-nested-in-P2SH Base58Check address for the
// given pubkey hash160: the redeem script is the canonical witness program
// 0x0014 || h per BIP141, and the address encodes hash160 of that script.
func AddressP2SH(h *[20]byte) string {
	script := make([]byte, 0, 22)
	script = append(script, 0x00, 0x14)
	script = append(script, h[:]...)
	scriptHash := Hash160(script)
	return base58Check(p2shVersion, scriptHash[:])
}

// AddressP2WPKH returns the native witness v0 Bech32 address for the given
// pubkey hash160.
func AddressP2WPKH(h *[20]byte) (string, error) {
	conv, err := bech32.ConvertBits(h[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	combined := make([]byte, 0, len(conv)+1)
	combined = append(combined, 0x00) // witness version
	combined = append(combined, conv...)
	return bech32.Encode(witnessHRP, combined)
}

// WIF returns the wallet import format encoding of the private key: version
// 0x80, the 32 key bytes, a 0x01 suffix for keys used with compressed
// public keys, and the Base58Check checksum.
func WIF(k *secp256k1.ModNScalar, compressed bool) string {
	kb := k.Bytes()
	payload := make([]byte, 0, 33)
	payload = append(payload, kb[:]...)
	if compressed {
		payload = append(payload, 0x01)
	}
	return base58Check(wifVersion, payload)
}
