// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rlbridge/bridge"
	"github.com/bureau-foundation/rlbridge/lib/config"
	"github.com/bureau-foundation/rlbridge/lib/logging"
	"github.com/bureau-foundation/rlbridge/lib/metrics"
	"github.com/bureau-foundation/rlbridge/lib/process"
	"github.com/bureau-foundation/rlbridge/lib/version"
	"github.com/bureau-foundation/rlbridge/sim"
)

func main() {
	if err := run(); err != nil {
		process.Fatal("rlbridge-sim", err)
	}
}

func run() error {
	var (
		configPath    string
		listenAddr    string
		metricsListen string
		warmupFrames  int
		verbose       bool
	)

	flagSet := pflag.NewFlagSet("rlbridge-sim", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "config file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.StringVarP(&listenAddr, "listen", "l", "", "control socket address (overrides bridge.listen_addr)")
	flagSet.StringVar(&metricsListen, "metrics-listen", "", "serve /metrics on this address (overrides metrics.listen_addr)")
	flagSet.IntVar(&warmupFrames, "warmup-frames", 0, "frames before the headless buffer appears (overrides sim.warmup_frames)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable per-connection debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("rlbridge-sim")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("listen") {
		cfg.Bridge.ListenAddr = listenAddr
	}
	if flagSet.Changed("metrics-listen") {
		cfg.Metrics.ListenAddr = metricsListen
	}
	if flagSet.Changed("warmup-frames") {
		cfg.Sim.WarmupFrames = warmupFrames
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	world, err := sim.New(sim.Options{
		Width:         cfg.Sim.Width,
		Height:        cfg.Sim.Height,
		Skills:        cfg.Sim.Skills,
		WarmupFrames:  cfg.Sim.WarmupFrames,
		FrameInterval: cfg.Sim.FrameInterval,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	server, err := bridge.New(bridge.Config{
		ListenAddr:   cfg.Bridge.ListenAddr,
		Game:         world,
		Logger:       logger,
		StepTimeout:  cfg.Bridge.StepTimeout,
		MaxLineBytes: cfg.Bridge.MaxLineBytes,
	})
	if err != nil {
		return err
	}
	// The game keeps running without its control socket, the way the
	// real client keeps running when the port is taken.
	if err := server.Start(ctx); err != nil {
		logger.Error("control socket unavailable, continuing without it", "error", err)
	}
	defer server.Stop()

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(ctx, cfg.Metrics.ListenAddr, logger)
	}

	logger.Info("rlbridge-sim started", "version", version.Info())
	err = world.Run(ctx, server.FrameRendered)
	logger.Info("shutting down")
	return err
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

// serveMetrics serves /metrics and /health until ctx is done. A bind
// failure is logged and metrics are simply unavailable.
func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	})

	logger.Info("metrics listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "addr", addr, "error", err)
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `rlbridge-sim - Synthetic game served over the rlbridge control protocol

Renders a small skill-training world into a headless buffer and exposes
it on the control socket, so that agents, the capture tool, and tests
can run without the real game client.

Usage:
  rlbridge-sim [flags]

Examples:
  # Serve on the default port with built-in settings
  rlbridge-sim

  # Ephemeral port, metrics enabled, verbose
  rlbridge-sim --listen 127.0.0.1:0 --metrics-listen 127.0.0.1:9656 -v

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
