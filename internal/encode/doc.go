// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package encode produces the public encodings candidates are matched
// against: the Nostr npub form (Bech32 over the raw 32-byte X coordinate)
// and the legacy hash-based forms (P2PKH, P2SH-P2WPKH, and witness v0
// Bech32 over hash160 of the SEC1 serialization), along with WIF private
// key encoding and the fingerprint words the lookup index consumes.
package encode
