// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the file Load reads.
const EnvironmentVariable = "RLBRIDGE_CONFIG"

// Config is the master configuration.
type Config struct {
	// Bridge configures the control socket.
	Bridge BridgeConfig `yaml:"bridge"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Sim configures the synthetic game hosted by rlbridge-sim.
	Sim SimConfig `yaml:"sim"`

	// Capture configures rlbridge-capture.
	Capture CaptureConfig `yaml:"capture"`
}

// BridgeConfig configures the control socket.
type BridgeConfig struct {
	// ListenAddr is the TCP address to accept control connections on.
	// Default: 127.0.0.1:5656
	ListenAddr string `yaml:"listen_addr"`

	// StepTimeout bounds how long STEP waits for the next frame.
	// Default: 1s
	StepTimeout time.Duration `yaml:"step_timeout"`

	// MaxLineBytes is the longest command line a session accepts.
	// Default: 4096
	MaxLineBytes int `yaml:"max_line_bytes"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddr serves /metrics over HTTP. Empty disables it.
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`

	// Format is one of auto, text, json. Default: auto
	Format string `yaml:"format"`
}

// SimConfig configures the synthetic game.
type SimConfig struct {
	// Width and Height are the headless buffer dimensions.
	// Default: 765x503
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// FrameInterval is the time between rendered frames. Default: 20ms
	FrameInterval time.Duration `yaml:"frame_interval"`

	// WarmupFrames is how many frames render before the headless
	// buffer and READY become available. Default: 25
	WarmupFrames int `yaml:"warmup_frames"`

	// Skills is the length of the experience vector. Default: 21
	Skills int `yaml:"skills"`
}

// CaptureConfig configures rlbridge-capture.
type CaptureConfig struct {
	// Output is the archive path. Default: ${HOME}/rlbridge/capture.rlcap
	Output string `yaml:"output"`

	// Compression is one of none, lz4, zstd. Default: zstd
	Compression string `yaml:"compression"`

	// MaxFPS paces STEP requests. Zero means unpaced. Default: 0
	MaxFPS float64 `yaml:"max_fps"`
}

// Default returns the configuration used when no file is given, and
// the base that a loaded file is merged onto.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ListenAddr:   "127.0.0.1:5656",
			StepTimeout:  time.Second,
			MaxLineBytes: 4096,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Sim: SimConfig{
			Width:         765,
			Height:        503,
			FrameInterval: 20 * time.Millisecond,
			WarmupFrames:  25,
			Skills:        21,
		},
		Capture: CaptureConfig{
			Output:      "${HOME}/rlbridge/capture.rlcap",
			Compression: "zstd",
		},
	}
}

// Load loads the file named by RLBRIDGE_CONFIG. Unlike the binaries'
// --config flag it has no fallback: an unset variable is an error.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your rlbridge config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads the file at path over Default and expands variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so the same struct tags apply once
		// comments and trailing commas are gone.
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path-valued
// fields.
func (c *Config) expandVariables() {
	c.Capture.Output = expandVars(c.Capture.Output)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if _, _, err := net.SplitHostPort(c.Bridge.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("bridge.listen_addr %q: %w", c.Bridge.ListenAddr, err))
	}
	if c.Bridge.StepTimeout <= 0 {
		errs = append(errs, fmt.Errorf("bridge.step_timeout must be positive"))
	}
	if c.Bridge.MaxLineBytes < 64 {
		errs = append(errs, fmt.Errorf("bridge.max_line_bytes must be at least 64"))
	}
	if c.Metrics.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.ListenAddr); err != nil {
			errs = append(errs, fmt.Errorf("metrics.listen_addr %q: %w", c.Metrics.ListenAddr, err))
		}
	}
	if !contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error"))
	}
	if !contains([]string{"auto", "text", "json"}, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: auto, text, json"))
	}
	if c.Sim.Width <= 0 || c.Sim.Height <= 0 {
		errs = append(errs, fmt.Errorf("sim.width and sim.height must be positive"))
	}
	if c.Sim.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("sim.frame_interval must be positive"))
	}
	if c.Sim.WarmupFrames < 0 {
		errs = append(errs, fmt.Errorf("sim.warmup_frames must not be negative"))
	}
	if c.Sim.Skills <= 0 {
		errs = append(errs, fmt.Errorf("sim.skills must be positive"))
	}
	if !contains([]string{"none", "lz4", "zstd"}, c.Capture.Compression) {
		errs = append(errs, fmt.Errorf("capture.compression must be one of: none, lz4, zstd"))
	}
	if c.Capture.MaxFPS < 0 {
		errs = append(errs, fmt.Errorf("capture.max_fps must not be negative"))
	}

	return errors.Join(errs...)
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
