// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/math/uint256"

	"github.com/nostrkit/npubsearch/internal/curvemath"
	"github.com/nostrkit/npubsearch/internal/encode"
	"github.com/nostrkit/npubsearch/internal/engine"
	"github.com/nostrkit/npubsearch/internal/lookup"
)

// SearchMode selects which public key serializations the legacy hash paths
// consider.  The npub path is X only, so the mode there only affects the
// WIF form of reported keys.
type SearchMode int

// These constants define the supported search modes.
const (
	ModeCompressed SearchMode = iota
	ModeUncompressed
	ModeBoth
)

// String returns the mode in human-readable form.
func (m SearchMode) String() string {
	switch m {
	case ModeCompressed:
		return "compressed"
	case ModeUncompressed:
		return "uncompressed"
	case ModeBoth:
		return "compressed or uncompressed"
	}
	return fmt.Sprintf("unknown mode %d", int(m))
}

// statsInterval is how often the progress line is logged.
const statsInterval = 5 * time.Second

// rateFilterSize is the number of samples in the key rate smoothing window.
const rateFilterSize = 8

// Config parameterizes a Searcher.
type Config struct {
	// Patterns are the raw user-supplied patterns.
	Patterns []string

	// Seed is the starting key seed.  An empty seed draws fresh entropy.
	Seed string

	// ParanoidSeed appends additional system entropy to the seed before
	// stretching.
	ParanoidSeed bool

	// Workers is the number of concurrent search workers.  Zero selects
	// one per CPU.
	Workers int

	// RekeyMkeys, when nonzero, rebases every worker onto a fresh random
	// 256-bit key after every RekeyMkeys million keys processed
	// globally.
	RekeyMkeys uint64

	// StopOnFind terminates the search once every pattern has a verified
	// hit.
	StopOnFind bool

	// MaxFound caps the per-worker hit buffer capacity.  Zero selects a
	// reasonable default.
	MaxFound uint32

	// Mode selects the legacy serialization mode.  It defaults to
	// compressed, which is also what the npub path reports WIF keys as.
	Mode SearchMode

	// StartPubHex, when non-empty, is the SEC1 hex encoding of a point
	// added to every candidate; hits then yield partial private keys.
	StartPubHex string

	// OutputFile, when non-empty, receives hit records instead of
	// stdout.
	OutputFile string
}

// Searcher owns the worker threads and shared search state.
type Searcher struct {
	cfg      Config
	idx      *lookup.Index
	table    *curvemath.GenTable
	verifier *Verifier
	sink     *Sink
	startPub *curvemath.Point
	startKey [32]byte

	counters []uint64 // per-worker key counters, atomic access
	rekeyReq []atomic.Bool
	found    atomic.Uint64

	quit context.CancelFunc
}

// ParseStartPub decodes a SEC1-encoded public key into an affine point.
func ParseStartPub(pubHex string) (*curvemath.Point, error) {
	b, err := hex.DecodeString(pubHex)
	if err != nil {
		str := fmt.Sprintf("invalid start public key hex: %v", err)
		return nil, makeError(ErrStartPubInvalid, str)
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		str := fmt.Sprintf("invalid start public key: %v", err)
		return nil, makeError(ErrStartPubInvalid, str)
	}

	var p curvemath.Point
	if overflow := p.X.SetByteSlice(pub.X().Bytes()); overflow {
		return nil, makeError(ErrStartPubInvalid, "start public key X overflow")
	}
	if overflow := p.Y.SetByteSlice(pub.Y().Bytes()); overflow {
		return nil, makeError(ErrStartPubInvalid, "start public key Y overflow")
	}
	return &p, nil
}

// New creates a searcher: patterns are validated and indexed, the seed is
// stretched into the starting key, and the shared generator table is built.
func New(cfg Config) (*Searcher, error) {
	idx, err := lookup.NewIndex(cfg.Patterns)
	if err != nil {
		return nil, err
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxFound == 0 {
		cfg.MaxFound = 65536
	}

	seed := cfg.Seed
	if seed == "" {
		seed = RandomSeed()
	}
	if cfg.ParanoidSeed {
		seed += RandomSeed()
	}

	s := &Searcher{
		cfg:      cfg,
		idx:      idx,
		table:    curvemath.NewGenTable(engine.GroupSize / 2),
		sink:     NewSink(cfg.OutputFile),
		startKey: DeriveStartKey(seed),
		counters: make([]uint64, cfg.Workers),
		rekeyReq: make([]atomic.Bool, cfg.Workers),
	}

	if cfg.StartPubHex != "" {
		s.startPub, err = ParseStartPub(cfg.StartPubHex)
		if err != nil {
			return nil, err
		}
	}
	wifCompressed := cfg.Mode != ModeUncompressed
	s.verifier = NewVerifier(idx, s.sink, s.startPub, wifCompressed)
	return s, nil
}

// Index exposes the pattern index, primarily for the caller's startup
// banner.
func (s *Searcher) Index() *lookup.Index {
	return s.idx
}

// FoundCount returns the number of verified hits so far.
func (s *Searcher) FoundCount() uint64 {
	return s.found.Load()
}

// KeyCount returns the total number of candidates tested across every
// worker.  The per-worker counters are read with relaxed semantics; the
// result is only used for statistics.
func (s *Searcher) KeyCount() uint64 {
	var total uint64
	for i := range s.counters {
		total += atomic.LoadUint64(&s.counters[i])
	}
	return total
}

// workerBase returns worker w's starting cursor: startKey + (w << 64), so
// workers cannot collide for roughly 2^64 iterations.
func (s *Searcher) workerBase(w int) uint256.Uint256 {
	var cursor, off uint256.Uint256
	cursor.SetBytes(&s.startKey)
	off.SetUint64(uint64(w)).Lsh(64)
	cursor.Add(&off)
	return cursor
}

// Run performs the search until the context is canceled or, with
// StopOnFind, until every pattern has a verified hit.
func (s *Searcher) Run(outer context.Context) error {
	ctx, cancel := context.WithCancel(outer)
	defer cancel()
	s.quit = cancel

	if s.cfg.RekeyMkeys > 0 {
		log.Infof("Base key: randomly changed every %d Mkeys", s.cfg.RekeyMkeys)
	} else {
		log.Infof("Base key: %x", s.startKey)
	}

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id)
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.statsLoop(ctx)
	}()

	wg.Wait()
	log.Infof("Search finished: %d found, %d keys tested",
		s.found.Load(), s.KeyCount())
	if s.cfg.StopOnFind && s.idx.AllFound() {
		return nil
	}
	return outer.Err()
}

// worker is one search thread.  It owns its scalar cursor and loops over
// groups until the context is canceled; the stop and rekey flags are polled
// only at group boundaries, so cancellation latency is bounded by one group
// duration.
func (s *Searcher) worker(ctx context.Context, id int) {
	cursor := s.workerBase(id)
	if s.cfg.RekeyMkeys > 0 {
		cursor = randomCursor()
	}

	var base secp256k1.ModNScalar
	cursorBytes := cursor.Bytes()
	base.SetBytes(&cursorBytes)

	walker := engine.NewWalker(engine.Config{
		Table:    s.table,
		StartPub: s.startPub,
	}, &base)

	var groupStep secp256k1.ModNScalar
	groupStep.SetInt(engine.GroupSize)
	perScalar := walker.CandidatesPerScalar()

	hits := engine.NewHitBuffer(s.cfg.MaxFound)
	compressed := s.cfg.Mode != ModeUncompressed

	var xb [32]byte
	var suffix [encode.NpubDataLen]byte
	screenWildcards := s.idx.HasWildcards()

	emit := func(x, y *secp256k1.FieldVal, tag engine.Tag) {
		x.PutBytes(&xb)
		word0 := binary.LittleEndian.Uint32(xb[:4])
		if !screenWildcards && !s.idx.MaybeBucketable(uint16(word0)) {
			return
		}
		encode.NpubDataChars(&xb, suffix[:])
		pat := s.idx.Match(word0, string(suffix[:]), s.cfg.StopOnFind)
		if pat == nil {
			return
		}

		incr := int32(tag.Incr)
		if tag.Neg {
			incr = -incr
		}
		rec := engine.HitRecord{
			ThreadID:    uint32(id),
			Incr:        incr,
			Endo:        tag.Endo,
			Compressed:  compressed,
			Fingerprint: encode.XFingerprint(&xb),
		}
		hits.Append(&rec)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if s.rekeyReq[id].CompareAndSwap(true, false) {
			cursor = randomCursor()
			cursorBytes = cursor.Bytes()
			base.SetBytes(&cursorBytes)
			walker.Reset(&base)
		}

		if err := walker.Group(emit); err != nil {
			// Grouped inverse degenerated; advance a single scalar
			// and restart the group.
			log.Warnf("Worker %d: %v; advancing one scalar", id, err)
			cursor.AddUint64(1)
			cursorBytes = cursor.Bytes()
			base.SetBytes(&cursorBytes)
			walker.Reset(&base)
			continue
		}

		// Drain the hit buffer before the cursor advances so every
		// record verifies against the group base it was produced
		// under.
		if hits.Overflowed() {
			log.Warnf("Worker %d: hit buffer overflow, some hits dropped", id)
		}
		for _, rec := range hits.Records() {
			if s.verifier.Verify(&base, &rec) {
				s.found.Add(1)
				if s.cfg.StopOnFind && s.idx.AllFound() {
					s.quit()
				}
			}
		}
		hits.Reset()

		cursor.AddUint64(engine.GroupSize)
		base.Add(&groupStep)
		atomic.AddUint64(&s.counters[id], engine.GroupSize*perScalar)
	}
}

// randomCursor returns a uniformly random 256-bit cursor for rekeying.
func randomCursor() uint256.Uint256 {
	var buf [32]byte
	rand.Read(buf[:])
	var cursor uint256.Uint256
	cursor.SetBytes(&buf)
	return cursor
}

// statsLoop periodically logs the smoothed key rate, total work, the
// probability estimate for the remaining difficulty, and the found count.
// It also triggers global rekeys when configured.
func (s *Searcher) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	var filter [rateFilterSize]float64
	var filterPos int
	lastCount := s.KeyCount()
	lastTime := time.Now()
	var lastRekey uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		count := s.KeyCount()
		now := time.Now()
		rate := float64(count-lastCount) / now.Sub(lastTime).Seconds()
		filter[filterPos%rateFilterSize] = rate
		filterPos++

		var avg float64
		n := filterPos
		if n > rateFilterSize {
			n = rateFilterSize
		}
		for i := 0; i < n; i++ {
			avg += filter[i]
		}
		avg /= float64(n)

		log.Infof("[%s][Total 2^%.2f]%s[Found %d]",
			formatRate(avg), math.Log2(float64(count)),
			s.expectedTime(avg, float64(count)), s.found.Load())

		if r := s.cfg.RekeyMkeys; r > 0 && count-lastRekey > r*1000000 {
			for i := range s.rekeyReq {
				s.rekeyReq[i].Store(true)
			}
			lastRekey = count
		}

		lastCount = count
		lastTime = now
	}
}

// formatRate renders a key rate with an adaptive unit.
func formatRate(r float64) string {
	switch {
	case r >= 1e9:
		return fmt.Sprintf("%6.2f Gkey/s", r/1e9)
	case r >= 1e6:
		return fmt.Sprintf("%6.2f Mkey/s", r/1e6)
	case r >= 1e3:
		return fmt.Sprintf("%6.2f Kkey/s", r/1e3)
	}
	return fmt.Sprintf("%6.2f key/s", r)
}

// expectedTime estimates the probability that a hit has already occurred
// and the time remaining to even odds, from the smallest outstanding
// pattern difficulty.  Wildcard-heavy sets with no meaningful difficulty
// yield an empty string.
func (s *Searcher) expectedTime(keyRate, keyCount float64) string {
	difficulty := s.idx.MinDifficulty()
	if difficulty <= 1 || keyRate <= 0 {
		return ""
	}

	p := 1.0 / difficulty
	cp := 1.0 - math.Pow(1.0-p, keyCount)
	ret := fmt.Sprintf("[Prob %.1f%%]", cp*100.0)

	desired := 0.5
	for desired < cp {
		desired += 0.1
	}
	if desired >= 0.99 {
		desired = 0.99
	}
	k := math.Log(1.0-desired) / math.Log(1.0-p)
	remaining := (k - keyCount) / keyRate
	if remaining < 0 {
		remaining = 0
	}

	// Very large estimates overflow a Duration, so render years directly.
	const secPerYear = 365 * 24 * 3600
	if remaining >= 100*secPerYear {
		return ret + fmt.Sprintf("[%.0f%% in %gy]", desired*100,
			remaining/secPerYear)
	}

	d := time.Duration(remaining * float64(time.Second))
	switch {
	case d >= 365*24*time.Hour:
		return ret + fmt.Sprintf("[%.0f%% in %.1fy]", desired*100,
			d.Hours()/(365*24))
	case d >= 24*time.Hour:
		return ret + fmt.Sprintf("[%.0f%% in %.1fd]", desired*100,
			d.Hours()/24)
	}
	return ret + fmt.Sprintf("[%.0f%% in %s]", desired*100, d.Round(time.Second))
}
