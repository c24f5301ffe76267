// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/rlbridge/client"
	"github.com/bureau-foundation/rlbridge/lib/clock"
	"github.com/bureau-foundation/rlbridge/protocol"
)

// Source is the part of client.Client the recorder drives.
type Source interface {
	WaitReady(ctx context.Context, poll time.Duration) error
	Click(x, y, button int) error
	Step() (*protocol.Frame, error)
	State() (protocol.State, error)
}

// Click is a scripted left click issued before a given step, used to
// get past title and login screens.
type Click struct {
	Step int
	X, Y int
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	// Steps is how many records to write.
	Steps int

	// MaxFPS caps the STEP rate. Zero or negative means unpaced.
	MaxFPS float64

	// Clicks are issued before their step, in order.
	Clicks []Click

	// Weights shapes each record's reward. Zero means
	// client.DefaultRewardWeights.
	Weights client.RewardWeights

	// RetryLimit bounds consecutive no-headless retries per step.
	// Default: 20
	RetryLimit int

	// RetryDelay is the pause between no-headless retries.
	// Default: 50ms
	RetryDelay time.Duration

	// ReadyPoll is the READY polling interval. Default: 100ms
	ReadyPoll time.Duration

	// Clock drives pacing and retries. Default: real
	Clock clock.Clock

	// Logger receives progress. Default: slog.Default()
	Logger *slog.Logger
}

// Stats reports what a recording did.
type Stats struct {
	Records         int
	Retries         int
	DuplicateFrames int
	TotalReward     float64
	Elapsed         time.Duration
}

// Recorder records a trajectory from a Source into a Writer.
type Recorder struct {
	source  Source
	writer  *Writer
	options RecorderOptions
	limiter *rate.Limiter
}

// NewRecorder applies defaults to options and returns a Recorder.
func NewRecorder(source Source, writer *Writer, options RecorderOptions) *Recorder {
	if options.Weights == (client.RewardWeights{}) {
		options.Weights = client.DefaultRewardWeights()
	}
	if options.RetryLimit == 0 {
		options.RetryLimit = 20
	}
	if options.RetryDelay == 0 {
		options.RetryDelay = 50 * time.Millisecond
	}
	if options.ReadyPoll == 0 {
		options.ReadyPoll = 100 * time.Millisecond
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	limit := rate.Inf
	if options.MaxFPS > 0 {
		limit = rate.Limit(options.MaxFPS)
	}
	return &Recorder{
		source:  source,
		writer:  writer,
		options: options,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run waits for the game to be ready, then writes Steps records. Each
// record holds the frame returned by STEP, the state read right after
// it, and the reward relative to the previous state.
func (r *Recorder) Run(ctx context.Context) (Stats, error) {
	logger := r.options.Logger
	started := r.options.Clock.Now()
	var stats Stats

	if err := r.source.WaitReady(ctx, r.options.ReadyPoll); err != nil {
		return stats, fmt.Errorf("capture: waiting for READY: %w", err)
	}
	previous, err := r.source.State()
	if err != nil {
		return stats, fmt.Errorf("capture: reading initial state: %w", err)
	}
	logger.Info("recording started",
		"steps", r.options.Steps,
		"max_fps", r.options.MaxFPS,
		"total_experience", previous.TotalExperience,
	)

	clicks := r.options.Clicks
	var lastDigest Digest
	for step := range r.options.Steps {
		if err := r.pace(ctx); err != nil {
			return stats, err
		}
		for len(clicks) > 0 && clicks[0].Step <= step {
			if err := r.source.Click(clicks[0].X, clicks[0].Y, 1); err != nil {
				return stats, fmt.Errorf("capture: click before step %d: %w", step, err)
			}
			logger.Debug("scripted click", "step", step, "x", clicks[0].X, "y", clicks[0].Y)
			clicks = clicks[1:]
		}

		frame, retries, err := r.step(ctx)
		stats.Retries += retries
		if err != nil {
			return stats, fmt.Errorf("capture: step %d: %w", step, err)
		}
		state, err := r.source.State()
		if err != nil {
			return stats, fmt.Errorf("capture: state after step %d: %w", step, err)
		}

		reward := client.Reward(previous, state, r.options.Weights)
		digest, err := r.writer.Append(frame, state, reward)
		if err != nil {
			return stats, err
		}
		if stats.Records > 0 && digest == lastDigest {
			stats.DuplicateFrames++
		}
		lastDigest = digest
		stats.Records++
		stats.TotalReward += reward
		previous = state

		if reward > 0 {
			logger.Debug("reward", "step", step, "reward", reward,
				"skill_index", state.SkillIndex, "skill_delta", state.SkillDelta)
		}
	}

	stats.Elapsed = r.options.Clock.Now().Sub(started)
	logger.Info("recording finished",
		"records", stats.Records,
		"duplicates", stats.DuplicateFrames,
		"retries", stats.Retries,
		"total_reward", stats.TotalReward,
		"elapsed", stats.Elapsed,
	)
	return stats, nil
}

// step issues STEP, retrying while the bridge has no frame yet.
func (r *Recorder) step(ctx context.Context) (*protocol.Frame, int, error) {
	for retries := 0; ; retries++ {
		frame, err := r.source.Step()
		if err == nil {
			return frame, retries, nil
		}
		if !errors.Is(err, client.ErrNoHeadless) || retries >= r.options.RetryLimit {
			return nil, retries, err
		}
		if err := r.sleep(ctx, r.options.RetryDelay); err != nil {
			return nil, retries, err
		}
	}
}

// pace blocks until the limiter allows another STEP. The reservation
// is computed against the injected clock so that tests can advance it.
func (r *Recorder) pace(ctx context.Context) error {
	now := r.options.Clock.Now()
	reservation := r.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return fmt.Errorf("capture: rate limiter refused reservation")
	}
	return r.sleep(ctx, reservation.DelayFrom(now))
}

func (r *Recorder) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.options.Clock.After(d):
		return nil
	}
}
