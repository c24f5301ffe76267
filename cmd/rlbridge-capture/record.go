// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rlbridge/bridge"
	"github.com/bureau-foundation/rlbridge/capture"
	"github.com/bureau-foundation/rlbridge/client"
	"github.com/bureau-foundation/rlbridge/lib/logging"
)

func runRecord(ctx context.Context, args []string) error {
	var (
		configPath  string
		address     string
		output      string
		steps       int
		maxFPS      float64
		compression string
		clickSpecs  []string
		timeout     time.Duration
		verbose     bool
	)

	flagSet := pflag.NewFlagSet("rlbridge-capture record", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "config file (default: $RLBRIDGE_CONFIG, then built-in defaults)")
	flagSet.StringVarP(&address, "address", "a", bridge.DefaultListenAddr, "bridge control socket address")
	flagSet.StringVarP(&output, "output", "o", "", "archive path (overrides capture.output)")
	flagSet.IntVarP(&steps, "steps", "n", 100, "number of STEP records to write")
	flagSet.Float64Var(&maxFPS, "max-fps", 0, "cap the STEP rate (overrides capture.max_fps; 0 is unpaced)")
	flagSet.StringVar(&compression, "compression", "", "none, lz4, or zstd (overrides capture.compression)")
	flagSet.StringArrayVar(&clickSpecs, "click", nil, "scripted left click STEP:X:Y, repeatable")
	flagSet.DurationVar(&timeout, "timeout", client.DefaultTimeout, "per-request timeout")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log every rewarded step")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printRecordHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printRecordHelp(flagSet)
		return nil
	}
	if steps <= 0 {
		return fmt.Errorf("--steps must be positive, got %d", steps)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("output") {
		cfg.Capture.Output = output
	}
	if flagSet.Changed("max-fps") {
		cfg.Capture.MaxFPS = maxFPS
	}
	if flagSet.Changed("compression") {
		cfg.Capture.Compression = compression
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	codec, err := capture.ParseCompression(cfg.Capture.Compression)
	if err != nil {
		return err
	}
	clicks, err := parseClicks(clickSpecs)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	connection, err := client.Dial(ctx, address, client.Options{Timeout: timeout, Logger: logger})
	if err != nil {
		return err
	}
	defer connection.Close()

	path := os.ExpandEnv(cfg.Capture.Output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer file.Close()

	runID := uuid.New().String()
	writer, err := capture.NewWriter(file, capture.Header{
		RunID:       runID,
		Address:     address,
		Compression: codec,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return err
	}

	logger.Info("recording", "run_id", runID, "address", address, "output", path, "compression", codec.String())
	recorder := capture.NewRecorder(connection, writer, capture.RecorderOptions{
		Steps:  steps,
		MaxFPS: cfg.Capture.MaxFPS,
		Clicks: clicks,
		Logger: logger,
	})
	stats, runErr := recorder.Run(ctx)

	if err := file.Sync(); err != nil && runErr == nil {
		runErr = fmt.Errorf("syncing archive: %w", err)
	}
	if stats.Records > 0 {
		fmt.Fprintf(os.Stderr, "wrote %d records to %s (%d duplicate frames, %d retries, reward %.2f)\n",
			stats.Records, path, stats.DuplicateFrames, stats.Retries, stats.TotalReward)
	}
	if runErr != nil {
		return runErr
	}
	return connection.Quit()
}

func printRecordHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `rlbridge-capture record - Record STEP frames from a bridge

Waits for READY, issues any scripted clicks, then writes one archive
record per STEP: the frame, the STATE read after it, and the shaped
reward.

Usage:
  rlbridge-capture record [flags]

Examples:
  # 500 frames at 20 FPS, clicking through the title screen first
  rlbridge-capture record -n 500 --max-fps 20 --click 0:455:275 -o run.rlcap

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
