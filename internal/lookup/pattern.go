// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lookup

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/nostrkit/npubsearch/internal/encode"
)

// minBucketableLen is the minimum number of Bech32 data characters a
// wildcard-free pattern needs to deterministically pin the 16-bit first
// level key (4 characters carry 20 bits).
const minBucketableLen = 4

// secondaryLen is the minimum number of data characters needed to pin the
// full 32-bit secondary fingerprint word (7 characters carry 35 bits).
const secondaryLen = 7

// Pattern is a normalized user-supplied search pattern.  The found flag is
// the only mutable field and transitions false to true exactly once.
type Pattern struct {
	// Raw is the pattern exactly as the user supplied it.
	Raw string

	// Suffix is the normalized data-character form matched against
	// candidate encodings: HRP and separator stripped, wildcards
	// retained.
	Suffix string

	// Wildcard indicates the suffix contains ? or * metacharacters.
	Wildcard bool

	// Difficulty is the expected number of candidates per hit,
	// 2^(5*literal characters).
	Difficulty float64

	found atomic.Bool
}

// Found reports whether a verified hit has been recorded for the pattern.
func (p *Pattern) Found() bool {
	return p.found.Load()
}

// MarkFound records a verified hit for the pattern.
func (p *Pattern) MarkFound() {
	p.found.Store(true)
}

// bucketable reports whether the pattern can live in the two-level index:
// no wildcards and enough characters to fill the first-level key.
func (p *Pattern) bucketable() bool {
	return !p.Wildcard && len(p.Suffix) >= minBucketableLen
}

// Normalize strips the optional HRP and separator from a raw pattern and
// validates the remainder against the Bech32 data alphabet plus the ? and *
// wildcards.  The npub HRP is accepted case-insensitively; the data
// characters themselves must already be lowercase.
func Normalize(raw string) (string, error) {
	s := raw
	if len(s) >= 4 && strings.EqualFold(s[:4], encode.NpubHRP) {
		s = s[4:]
	}
	if len(s) >= 1 && s[0] == '1' {
		s = s[1:]
	}
	if len(s) == 0 {
		str := fmt.Sprintf("pattern %q is empty after normalization", raw)
		return "", patternError(ErrPatternInvalid, str)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '?' || c == '*' {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			str := fmt.Sprintf("pattern %q must be lowercase (invalid %q)",
				raw, c)
			return "", patternError(ErrPatternInvalid, str)
		}
		if _, ok := encode.CharsetIndex(c); !ok {
			str := fmt.Sprintf("pattern %q contains %q which is not in the "+
				"Bech32 alphabet %q", raw, c, encode.Charset)
			return "", patternError(ErrPatternInvalid, str)
		}
	}
	return s, nil
}

// NewPattern normalizes and validates a raw pattern.
func NewPattern(raw string) (*Pattern, error) {
	suffix, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	literals := 0
	wildcard := false
	for i := 0; i < len(suffix); i++ {
		switch suffix[i] {
		case '?', '*':
			wildcard = true
		default:
			literals++
		}
	}
	return &Pattern{
		Raw:        raw,
		Suffix:     suffix,
		Wildcard:   wildcard,
		Difficulty: math.Pow(2, float64(5*literals)),
	}, nil
}

// leadingBits returns the first n bits of the pattern's data characters
// packed MSB first into a uint64.  The pattern must have at least
// ceil(n/5) characters.
func (p *Pattern) leadingBits(n uint) uint64 {
	var acc uint64
	var bits uint
	for i := 0; i < len(p.Suffix) && bits < n; i++ {
		v, _ := encode.CharsetIndex(p.Suffix[i])
		acc = acc<<5 | uint64(v)
		bits += 5
	}
	return acc >> (bits - n)
}

// bucketKey returns the 16-bit first-level key the pattern pins.  The key
// matches encode.Fingerprint.Bucket: a little-endian load of the first two
// big-endian bytes.
func (p *Pattern) bucketKey() uint16 {
	lead := uint16(p.leadingBits(16))
	return lead>>8 | lead<<8
}

// secondaryWord returns the full 32-bit secondary fingerprint word for
// patterns with at least secondaryLen characters: a little-endian load of
// the first four big-endian bytes.
func (p *Pattern) secondaryWord() uint32 {
	lead := uint32(p.leadingBits(32))
	return lead>>24 | lead>>8&0xff00 | lead<<8&0xff0000 | lead<<24
}

// MatchSuffix reports whether the candidate suffix begins with the pattern,
// honoring the restricted glob semantics: ? matches exactly one character
// and * matches the remainder.
func (p *Pattern) MatchSuffix(suffix string) bool {
	pat := p.Suffix
	for i := 0; i < len(pat); i++ {
		if pat[i] == '*' {
			return true
		}
		if i >= len(suffix) {
			return false
		}
		if pat[i] == '?' {
			continue
		}
		if pat[i] != suffix[i] {
			return false
		}
	}
	return true
}
