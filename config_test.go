// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"testing"

	"github.com/nostrkit/npubsearch/internal/search"
)

// TestSearchModeMapping ensures the mode option maps onto the search
// package modes, defaulting to compressed.
func TestSearchModeMapping(t *testing.T) {
	tests := []struct {
		mode string
		want search.SearchMode
	}{
		{"compressed", search.ModeCompressed},
		{"uncompressed", search.ModeUncompressed},
		{"both", search.ModeBoth},
		{"", search.ModeCompressed},
		{"BOTH", search.ModeBoth},
	}
	for _, test := range tests {
		cfg := &config{Mode: test.mode}
		if got := cfg.searchMode(); got != test.want {
			t.Errorf("mode %q mapped to %v, want %v", test.mode, got, test.want)
		}
	}
}

// TestErrSuppressUsage ensures suppression errors are detectable through
// error wrapping, which main relies on to decide whether to print usage.
func TestErrSuppressUsage(t *testing.T) {
	err := error(errSuppressUsage("config file unreadable"))
	var e errSuppressUsage
	if !errors.As(err, &e) {
		t.Fatal("errSuppressUsage not detected via errors.As")
	}
	if e.Error() != "config file unreadable" {
		t.Fatalf("unexpected message %q", e.Error())
	}
}

// TestFileExists exercises the stat wrapper.
func TestFileExists(t *testing.T) {
	if !fileExists("config.go") {
		t.Fatal("config.go reported missing")
	}
	if fileExists("definitely-not-here.xyz") {
		t.Fatal("nonexistent file reported present")
	}
}
