// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/nostrkit/npubsearch/internal/limits"
	"github.com/nostrkit/npubsearch/internal/search"
	"github.com/nostrkit/npubsearch/internal/version"
)

var cfg *config

// appMain is the real main function for npubsearch.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func appMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	tcfg, err := loadConfig(appName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var e errSuppressUsage
		if !errors.As(err, &e) {
			fmt.Fprintf(os.Stderr, "Use %s -h to show usage\n", appName)
		}
		return err
	}
	cfg = tcfg
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Get a context that will be canceled when a shutdown signal has been
	// triggered from an OS signal such as SIGINT (Ctrl+C).
	ctx := shutdownListener()
	defer mainLog.Info("Shutdown complete")

	mainLog.Infof("Version %s (Go version %s %s/%s)", version.String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)

	// The sweeps preallocate their working set, so impose a modest soft
	// memory limit to keep the collector quiet.
	limits.SetMemoryLimit(1 << 30)

	searcher, err := search.New(search.Config{
		Patterns:     cfg.patterns,
		Seed:         cfg.Seed,
		ParanoidSeed: cfg.ParanoidSeed,
		Workers:      cfg.Workers,
		RekeyMkeys:   cfg.Rekey,
		StopOnFind:   cfg.StopOnFind,
		MaxFound:     cfg.MaxFound,
		Mode:         cfg.searchMode(),
		StartPubHex:  cfg.StartPub,
		OutputFile:   cfg.OutputFile,
	})
	if err != nil {
		mainLog.Errorf("Unable to initialize search: %v", err)
		return err
	}

	mainLog.Infof("Search: %s [%s]", searcher.Index().Describe(),
		cfg.searchMode())
	mainLog.Infof("Start %s", time.Now().Format(time.ANSIC))

	if err := searcher.Run(ctx); err != nil &&
		!errors.Is(err, context.Canceled) {
		mainLog.Errorf("Search failed: %v", err)
		return err
	}
	return nil
}

func main() {
	// Work around defer not working after os.Exit()
	if err := appMain(); err != nil {
		os.Exit(1)
	}
}
