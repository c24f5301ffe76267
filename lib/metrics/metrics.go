// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exports the bridge's Prometheus instruments. They
// are registered once on the default registry; [Handler] serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Frame sources for FramesServed.
const (
	SourceLive        = "live"
	SourceCache       = "cache"
	SourceUnavailable = "unavailable"
)

var (
	// CommandsTotal counts handled commands by token and outcome.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rlbridge_commands_total",
			Help: "Total number of control commands handled",
		},
		[]string{"command", "result"},
	)

	// FramesServed counts FRAME/STEP responses by where the pixels
	// came from.
	FramesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rlbridge_frames_served_total",
			Help: "Total number of frame responses by source",
		},
		[]string{"source"},
	)

	// StepWait tracks how long STEP blocked for the next frame.
	StepWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rlbridge_step_wait_seconds",
			Help:    "Time STEP spent waiting for the next frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	// StepTimeouts counts STEP waits that ended without a new frame.
	StepTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rlbridge_step_timeouts_total",
			Help: "Total number of STEP waits that timed out without a new frame",
		},
	)

	// ActiveSessions tracks open control connections.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rlbridge_active_sessions",
			Help: "Number of open control connections",
		},
	)

	// RenderDuration tracks how long the simulator takes to draw one
	// frame.
	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rlbridge_sim_render_seconds",
			Help:    "Time the simulator spent rendering one frame",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05},
		},
	)

	// FrameCounter mirrors the frame clock.
	FrameCounter = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rlbridge_frame_counter",
			Help: "Number of frames rendered since the bridge was created",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommand records one handled command.
func RecordCommand(command string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	CommandsTotal.WithLabelValues(command, result).Inc()
}

// RecordFrame records one frame response.
func RecordFrame(source string) {
	FramesServed.WithLabelValues(source).Inc()
}

// RecordStep records one STEP wait. advanced is false when the wait
// timed out without a new frame.
func RecordStep(waited time.Duration, advanced bool) {
	StepWait.Observe(waited.Seconds())
	if !advanced {
		StepTimeouts.Inc()
	}
}

// RecordRender records one simulator render.
func RecordRender(duration time.Duration) {
	RenderDuration.Observe(duration.Seconds())
}

// RecordSessionStart increments the open session gauge.
func RecordSessionStart() {
	ActiveSessions.Inc()
}

// RecordSessionEnd decrements the open session gauge.
func RecordSessionEnd() {
	ActiveSessions.Dec()
}

// SetFrameCounter publishes the current frame counter.
func SetFrameCounter(value uint64) {
	FrameCounter.Set(float64(value))
}
