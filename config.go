// Copyright (c) 2025-2026 The npubsearch developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/nostrkit/npubsearch/internal/search"
	"github.com/nostrkit/npubsearch/internal/version"
)

const (
	defaultConfigFilename = "npubsearch.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "npubsearch.log"
	defaultDebugLevel     = "info"
	defaultMaxFound       = 65536
)

var (
	defaultHomeDir    = defaultAppDataDir()
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// defaultAppDataDir returns the default data directory for the application.
func defaultAppDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".npubsearch")
}

// errSuppressUsage signifies that an error that happened during the initial
// configuration phase should suppress the usage output since it was not
// caused by the user.
type errSuppressUsage string

// Error implements the error interface.
func (e errSuppressUsage) Error() string {
	return string(e)
}

// config defines the configuration options for npubsearch.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion  bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile   string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir       string `long:"logdir" description:"Directory to log output"`
	NoFileLog    bool   `long:"nofilelog" description:"Disable file logging"`
	DebugLevel   string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	Workers      int    `short:"t" long:"workers" description:"Number of search workers (0 = one per CPU)"`
	Mode         string `long:"mode" description:"Legacy serialization mode" choice:"compressed" choice:"uncompressed" choice:"both" default:"compressed"`
	MaxFound     uint32 `long:"maxfound" description:"Hit buffer record capacity"`
	Rekey        uint64 `long:"rekey" description:"Rebase every worker onto a fresh random key after every N million keys"`
	StopOnFind   bool   `short:"s" long:"stop" description:"Stop the search once every pattern has a verified hit"`
	Seed         string `long:"seed" description:"Seed for the starting key (default: process-local entropy)"`
	PromptSeed   bool   `long:"promptseed" description:"Prompt for the seed without echoing it instead of taking it from options"`
	ParanoidSeed bool   `long:"paranoidseed" description:"Mix additional system entropy into the seed"`
	StartPub     string `long:"startpub" description:"SEC1 hex public key added to every candidate; hits report partial private keys"`
	OutputFile   string `short:"o" long:"output" description:"Append hit records to this file instead of stdout"`

	patterns []string
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options.  Command line options always take precedence.
func loadConfig(appName string) (*config, error) {
	cfg := config{
		ConfigFile: defaultConfigFile,
		LogDir:     defaultLogDir,
		DebugLevel: defaultDebugLevel,
		MaxFound:   defaultMaxFound,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, version.String())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	if fileExists(preCfg.ConfigFile) {
		err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			str := fmt.Sprintf("failed to parse config file: %v", err)
			return nil, errSuppressUsage(str)
		}
	}

	// Parse command line options again to ensure they take precedence.
	remaining, err := parser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}
	cfg.patterns = remaining

	// Initialize log rotation.  After the log rotation has been
	// initialized, the logger variables may be used.
	if !cfg.NoFileLog {
		initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, fmt.Errorf("%s: %w", "loadConfig", err)
	}

	if len(cfg.patterns) == 0 {
		return nil, errors.New("no patterns specified -- provide at least " +
			"one npub prefix pattern as a positional argument")
	}

	if cfg.PromptSeed {
		if cfg.Seed != "" {
			return nil, errors.New("the promptseed and seed options may " +
				"not be used together")
		}
		seed, err := promptSeed()
		if err != nil {
			str := fmt.Sprintf("failed to read seed: %v", err)
			return nil, errSuppressUsage(str)
		}
		cfg.Seed = seed
	}

	return &cfg, nil
}

// promptSeed reads the seed from the terminal without echoing it.
func promptSeed() (string, error) {
	fmt.Fprint(os.Stderr, "Seed: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprint(os.Stderr, "\n")
	if err != nil {
		return "", err
	}
	seed := string(secret)
	for i := range secret {
		secret[i] = 0x00
	}
	return seed, nil
}

// searchMode maps the mode option to the search package's mode.
func (cfg *config) searchMode() search.SearchMode {
	switch strings.ToLower(cfg.Mode) {
	case "uncompressed":
		return search.ModeUncompressed
	case "both":
		return search.ModeBoth
	}
	return search.ModeCompressed
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		return !os.IsNotExist(err)
	}
	return true
}
