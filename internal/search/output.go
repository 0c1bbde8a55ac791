// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Result is one verified hit ready for the output sink.
type Result struct {
	// PubAddress is the full encoded address or npub.
	PubAddress string

	// PrivWIF is the WIF encoding of the private key.
	PrivWIF string

	// PrivHex is the lowercase hex encoding of the private key without a
	// 0x prefix.
	PrivHex string

	// Partial indicates the private key is relative to a caller-supplied
	// starting public key and is reported as a partial key.
	Partial bool
}

// Sink serializes verified hits to a file or stdout.  Workers only touch it
// on verified hits, which are rare, so a single mutex suffices.
type Sink struct {
	mu     sync.Mutex
	path   string
	out    io.Writer
	warned bool
}

// NewSink returns a sink appending to the file at path, or writing to
// stdout when path is empty.
func NewSink(path string) *Sink {
	return &Sink{path: path, out: os.Stdout}
}

// Write appends one hit record.  A file sink that fails to open or write
// falls back to stdout with a single warning; output is never silently
// dropped.
func (s *Sink) Write(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.out
	var f *os.File
	if s.path != "" {
		var err error
		f, err = os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			s.fileWarn(err)
		} else {
			w = f
			defer f.Close()
		}
	}

	if err := writeResult(w, res); err != nil && f != nil {
		s.fileWarn(err)
		writeResult(s.out, res)
	}
}

// fileWarn logs the file sink failure once.
func (s *Sink) fileWarn(err error) {
	if s.warned {
		return
	}
	s.warned = true
	log.Warnf("Output file %s unavailable, falling back to stdout: %v",
		s.path, err)
}

// writeResult writes the record in the fixed three-line format, or two lines
// (PubAddress and PartialPriv) for a partial key.  Records are not separated
// by blank lines.
func writeResult(w io.Writer, res *Result) error {
	if res.Partial {
		_, err := fmt.Fprintf(w, "PubAddress: %s\nPartialPriv: %s\n",
			res.PubAddress, res.PrivWIF)
		return err
	}
	_, err := fmt.Fprintf(w, "PubAddress: %s\nPriv (WIF): %s\nPriv (HEX): 0x%s\n",
		res.PubAddress, res.PrivWIF, res.PrivHex)
	return err
}
