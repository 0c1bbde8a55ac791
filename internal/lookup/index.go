// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lookup

import (
	"fmt"
	"sort"
)

// numBuckets is the size of the first-level table, one entry per possible
// 16-bit leading fingerprint.
const numBuckets = 65536

// bucket is a first-level table entry.  count and offset describe this
// bucket's run in the sorted32/sortedPats arrays; short holds bucketable
// patterns too short to pin a full secondary word, confirmed by direct
// prefix comparison on a bucket hit.
type bucket struct {
	count  uint32
	offset uint32
	short  []*Pattern
}

// Index is the prebuilt two-level pattern index plus the linear wildcard
// list.  Build once, query many; nothing is mutated after construction
// except the per-pattern found flags.
type Index struct {
	buckets    [numBuckets]bucket
	sorted32   []uint32
	sortedPats []*Pattern
	wildcards  []*Pattern
	patterns   []*Pattern
}

// NewIndex builds the index from raw pattern strings.  At least one valid
// pattern is required; any invalid pattern fails the whole build so
// misconfiguration is surfaced at startup.
func NewIndex(raw []string) (*Index, error) {
	if len(raw) == 0 {
		return nil, patternError(ErrPatternInvalid, "no patterns supplied")
	}

	idx := &Index{}
	type entry struct {
		word uint32
		pat  *Pattern
	}
	perBucket := make(map[uint16][]entry)
	for _, r := range raw {
		p, err := NewPattern(r)
		if err != nil {
			return nil, err
		}
		idx.patterns = append(idx.patterns, p)

		if !p.bucketable() {
			idx.wildcards = append(idx.wildcards, p)
			continue
		}

		key := p.bucketKey()
		if len(p.Suffix) >= secondaryLen {
			perBucket[key] = append(perBucket[key],
				entry{word: p.secondaryWord(), pat: p})
		} else {
			idx.buckets[key].short = append(idx.buckets[key].short, p)
			if perBucket[key] == nil {
				perBucket[key] = []entry{}
			}
		}
	}

	// Lay out each non-empty bucket's run with ascending secondary words.
	keys := make([]int, 0, len(perBucket))
	for k := range perBucket {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)
	for _, ki := range keys {
		k := uint16(ki)
		entries := perBucket[k]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].word < entries[j].word
		})
		idx.buckets[k].offset = uint32(len(idx.sorted32))
		idx.buckets[k].count = uint32(len(entries))
		for _, e := range entries {
			idx.sorted32 = append(idx.sorted32, e.word)
			idx.sortedPats = append(idx.sortedPats, e.pat)
		}
	}
	return idx, nil
}

// Patterns returns every pattern in insertion order.
func (idx *Index) Patterns() []*Pattern {
	return idx.patterns
}

// HasWildcards reports whether any pattern requires linear glob evaluation.
func (idx *Index) HasWildcards() bool {
	return len(idx.wildcards) > 0
}

// MaybeBucketable reports whether any bucketable pattern could possibly
// match a candidate with the given 16-bit leading fingerprint.  A false
// return is definitive: no bucketable pattern matches.  This is the
// constant-time hot-path rejection.
func (idx *Index) MaybeBucketable(key uint16) bool {
	b := &idx.buckets[key]
	return b.count != 0 || len(b.short) != 0
}

// MatchBucketable returns the first bucketable pattern matching the
// candidate, or nil.  word0 is the candidate's first fingerprint word and
// suffix its full encoded data characters.  Patterns already found are
// skipped when skipFound is set.
func (idx *Index) MatchBucketable(word0 uint32, suffix string, skipFound bool) *Pattern {
	b := &idx.buckets[uint16(word0)]
	if b.count != 0 {
		run := idx.sorted32[b.offset : b.offset+b.count]
		i := sort.Search(len(run), func(i int) bool { return run[i] >= word0 })
		for ; i < len(run) && run[i] == word0; i++ {
			p := idx.sortedPats[b.offset+uint32(i)]
			if skipFound && p.Found() {
				continue
			}
			if p.MatchSuffix(suffix) {
				return p
			}
		}
	}
	for _, p := range b.short {
		if skipFound && p.Found() {
			continue
		}
		if p.MatchSuffix(suffix) {
			return p
		}
	}
	return nil
}

// MatchWildcards evaluates the wildcard/pattern list against the candidate
// suffix and returns the first match, or nil.
func (idx *Index) MatchWildcards(suffix string, skipFound bool) *Pattern {
	for _, p := range idx.wildcards {
		if skipFound && p.Found() {
			continue
		}
		if p.MatchSuffix(suffix) {
			return p
		}
	}
	return nil
}

// Match runs the full query: two-level lookup for bucketable patterns
// followed by wildcard evaluation.
func (idx *Index) Match(word0 uint32, suffix string, skipFound bool) *Pattern {
	if idx.MaybeBucketable(uint16(word0)) {
		if p := idx.MatchBucketable(word0, suffix, skipFound); p != nil {
			return p
		}
	}
	return idx.MatchWildcards(suffix, skipFound)
}

// AllFound reports whether every pattern has a verified hit.
func (idx *Index) AllFound() bool {
	for _, p := range idx.patterns {
		if !p.Found() {
			return false
		}
	}
	return true
}

// MinDifficulty returns the smallest difficulty among patterns not yet
// found, used for the expected-time estimate.  It returns 0 when every
// pattern is found.
func (idx *Index) MinDifficulty() float64 {
	var min float64
	for _, p := range idx.patterns {
		if p.Found() {
			continue
		}
		if min == 0 || p.Difficulty < min {
			min = p.Difficulty
		}
	}
	return min
}

// Describe returns the startup banner fragment describing the pattern set.
func (idx *Index) Describe() string {
	if len(idx.patterns) == 1 {
		return fmt.Sprintf("pattern %q (difficulty %.0f)",
			idx.patterns[0].Raw, idx.patterns[0].Difficulty)
	}
	return fmt.Sprintf("%d patterns (lookup size %d, %d wildcard)",
		len(idx.patterns), len(idx.sorted32), len(idx.wildcards))
}
