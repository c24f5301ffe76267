// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/rlbridge/lib/config"
	"github.com/bureau-foundation/rlbridge/lib/process"
	"github.com/bureau-foundation/rlbridge/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal("rlbridge-capture", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("missing subcommand")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "record":
		return runRecord(ctx, args[1:])
	case "inspect":
		return runInspect(args[1:])
	case "--version", "version":
		version.Print("rlbridge-capture")
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

// loadConfig reads --config, then $RLBRIDGE_CONFIG, then falls back
// to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvironmentVariable) != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `rlbridge-capture - Record and inspect rlbridge trajectories

Usage:
  rlbridge-capture record [flags]    Connect to a bridge and record STEP frames
  rlbridge-capture inspect FILE      Summarize and verify an archive
  rlbridge-capture --version         Print version information

Run "rlbridge-capture record --help" for recording flags.
`)
}
