// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"sync/atomic"

	"github.com/nostrkit/npubsearch/internal/encode"
)

// The accelerator hit buffer is a shared array of 32-bit words.  Word 0 is
// an atomically incremented hit count; each hit occupies a fixed 8-word
// record.  On overflow later hits are dropped and the host re-enqueues the
// work.

// RecordWords is the number of 32-bit words per hit record: thread id,
// packed tag, five fingerprint words, and one reserved word.
const RecordWords = 8

// HitRecord is the decoded form of one hit-buffer record.
type HitRecord struct {
	ThreadID    uint32
	Incr        int32
	Endo        uint8
	Compressed  bool
	Fingerprint encode.Fingerprint
}

// packTag packs the increment, mode bit, and endomorphism index into the
// wire tag word: incr<<16 | mode<<15 | endo.  The increment is truncated to
// a signed 16-bit value; negated-branch hits store it negated.
func packTag(incr int32, compressed bool, endo uint8) uint32 {
	tag := uint32(uint16(incr)) << 16
	if compressed {
		tag |= 1 << 15
	}
	return tag | uint32(endo&0x7f)
}

// unpackTag is the inverse of packTag.
func unpackTag(tag uint32) (incr int32, compressed bool, endo uint8) {
	incr = int32(int16(tag >> 16))
	compressed = tag&(1<<15) != 0
	endo = uint8(tag & 0x7f)
	return
}

// HitBuffer is the host-side view of the shared hit array.  Appends use an
// atomic reservation on word 0 so concurrent producers (device threads or
// goroutines standing in for them) never interleave records.
type HitBuffer struct {
	words []uint32
	max   uint32
}

// NewHitBuffer returns a buffer with capacity for maxFound records.
func NewHitBuffer(maxFound uint32) *HitBuffer {
	return &HitBuffer{
		words: make([]uint32, 1+uint64(maxFound)*RecordWords),
		max:   maxFound,
	}
}

// Append reserves a record slot and writes the hit.  It returns false when
// the buffer is full, in which case the hit is dropped and the count still
// reflects the attempted append, matching the device semantics.
func (b *HitBuffer) Append(rec *HitRecord) bool {
	n := atomic.AddUint32(&b.words[0], 1) - 1
	if n >= b.max {
		return false
	}
	w := b.words[1+n*RecordWords:]
	w[0] = rec.ThreadID
	w[1] = packTag(rec.Incr, rec.Compressed, rec.Endo)
	for i, fp := range rec.Fingerprint {
		w[2+i] = fp
	}
	w[7] = 0
	return true
}

// Overflowed reports whether any appended hit was dropped.
func (b *HitBuffer) Overflowed() bool {
	return atomic.LoadUint32(&b.words[0]) > b.max
}

// Records decodes the stored hits.  The caller must ensure no concurrent
// appends, mirroring the host reading the buffer after a kernel completes.
func (b *HitBuffer) Records() []HitRecord {
	n := atomic.LoadUint32(&b.words[0])
	if n > b.max {
		n = b.max
	}
	recs := make([]HitRecord, 0, n)
	for i := uint32(0); i < n; i++ {
		w := b.words[1+i*RecordWords:]
		var rec HitRecord
		rec.ThreadID = w[0]
		rec.Incr, rec.Compressed, rec.Endo = unpackTag(w[1])
		for j := range rec.Fingerprint {
			rec.Fingerprint[j] = w[2+j]
		}
		recs = append(recs, rec)
	}
	return recs
}

// Reset clears the hit count so the buffer can be reused for the next
// launch.
func (b *HitBuffer) Reset() {
	atomic.StoreUint32(&b.words[0], 0)
}
