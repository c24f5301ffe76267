// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/rlbridge/bridge"
	"github.com/bureau-foundation/rlbridge/lib/clock"
	"github.com/bureau-foundation/rlbridge/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// The sim is the bridge's stand-in game.
var _ bridge.Game = (*World)(nil)

func newTestWorld(t *testing.T, options Options) *World {
	t.Helper()
	if options.Width == 0 {
		options.Width = 42
	}
	if options.Height == 0 {
		options.Height = 10
	}
	if options.Skills == 0 {
		options.Skills = 3
	}
	if options.Clock == nil {
		options.Clock = clock.Fake(epoch)
	}
	options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	world, err := New(options)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return world
}

func TestNewDefaults(t *testing.T) {
	world, err := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if world.width != 765 || world.height != 503 {
		t.Errorf("size = %dx%d, want 765x503", world.width, world.height)
	}
	if got := len(world.Experience()); got != 21 {
		t.Errorf("experience length = %d, want 21", got)
	}
	if world.frameInterval != 20*time.Millisecond {
		t.Errorf("frameInterval = %v, want 20ms", world.frameInterval)
	}
}

func TestNewRejectsNegative(t *testing.T) {
	for _, options := range []Options{
		{Width: -1},
		{Height: -5},
		{WarmupFrames: -1},
		{Skills: -2},
	} {
		if _, err := New(options); err == nil {
			t.Errorf("New(%+v) succeeded, want error", options)
		}
	}
}

func TestWarmup(t *testing.T) {
	world := newTestWorld(t, Options{WarmupFrames: 3})

	for frame := 1; frame <= 2; frame++ {
		world.Render()
		if pixels, _, _ := world.HeadlessPixels(); pixels != nil {
			t.Fatalf("buffer published after %d of 3 warmup frames", frame)
		}
		if world.Ready() {
			t.Fatalf("Ready after %d of 3 warmup frames", frame)
		}
	}

	world.Render()
	pixels, width, height := world.HeadlessPixels()
	if pixels == nil || width != 42 || height != 10 {
		t.Fatalf("HeadlessPixels = (%d pixels, %d, %d) after warmup", len(pixels), width, height)
	}
	if len(pixels) != width*height {
		t.Fatalf("len(pixels) = %d, want %d", len(pixels), width*height)
	}
	if !world.Ready() {
		t.Fatal("not Ready after warmup")
	}
	if world.LoopCycle() != 3 {
		t.Fatalf("LoopCycle = %d, want 3", world.LoopCycle())
	}
}

func TestLeftPressTrainsSkillUnderPointer(t *testing.T) {
	world := newTestWorld(t, Options{})

	// Width 42 with 3 skills: columns 14..27 are skill 1.
	world.MouseMove(20, 5)
	world.MousePress(ButtonLeft)

	if got := world.Experience(); !slices.Equal(got, []int{0, ExperiencePerAction, 0}) {
		t.Fatalf("Experience = %v", got)
	}
	if world.Animation() != AnimationTraining || world.InteractingEntity() != 1 {
		t.Fatalf("Animation/InteractingEntity = %d/%d while training", world.Animation(), world.InteractingEntity())
	}
	if world.TotalExperience() != ExperiencePerAction {
		t.Fatalf("TotalExperience = %d", world.TotalExperience())
	}

	world.MouseRelease(ButtonLeft)
	if world.Animation() != -1 || world.InteractingEntity() != -1 {
		t.Fatalf("Animation/InteractingEntity = %d/%d after release", world.Animation(), world.InteractingEntity())
	}

	world.MousePress(ButtonRight)
	world.MouseRelease(ButtonRight)
	if world.TotalExperience() != ExperiencePerAction {
		t.Fatal("right press awarded experience")
	}
}

func TestLevels(t *testing.T) {
	tests := []struct{ experience, level int }{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{-50, 1},
		{1_000_000, MaxLevel},
	}
	for _, test := range tests {
		if got := LevelFor(test.experience); got != test.level {
			t.Errorf("LevelFor(%d) = %d, want %d", test.experience, got, test.level)
		}
	}

	world := newTestWorld(t, Options{})
	if got := world.TotalLevels(); got != 3 {
		t.Fatalf("TotalLevels = %d, want 3", got)
	}
	world.MouseMove(0, 0)
	for range 4 {
		world.MousePress(ButtonLeft)
		world.MouseRelease(ButtonLeft)
	}
	if got := world.TotalLevels(); got != 4 {
		t.Fatalf("TotalLevels after 100 experience = %d, want 4", got)
	}
}

func TestDragPans(t *testing.T) {
	world := newTestWorld(t, Options{})

	// Without a held button, drag only moves the pointer.
	world.MouseMove(30, 5)
	world.MouseDrag(10, 5)
	world.MousePress(ButtonLeft)
	world.MouseRelease(ButtonLeft)
	if got := world.Experience(); got[0] != ExperiencePerAction {
		t.Fatalf("Experience = %v, want skill 0 trained", got)
	}

	// Dragging 14 columns left with the right button held pans the
	// camera so that skill 1 is under column 10.
	world.MousePress(ButtonRight)
	world.MouseDrag(0, 5)
	world.MouseRelease(ButtonRight)
	world.MouseMove(10, 5)
	world.MousePress(ButtonLeft)
	if got := world.Experience(); got[1] != ExperiencePerAction {
		t.Fatalf("Experience = %v, want skill 1 trained after pan", got)
	}
}

func TestRenderChangesWithCamera(t *testing.T) {
	world := newTestWorld(t, Options{})
	world.MouseMove(41, 9)
	world.Render()
	before, _, _ := world.HeadlessPixels()

	world.MouseMove(20, 5)
	world.MousePress(ButtonRight)
	world.MouseDrag(25, 5)
	world.MouseRelease(ButtonRight)
	world.MouseMove(41, 9)
	world.Render()
	after, _, _ := world.HeadlessPixels()

	if slices.Equal(before, after) {
		t.Fatal("panning did not change the rendered frame")
	}
	if &before[0] == &after[0] {
		t.Fatal("Render reused a published buffer")
	}
}

func TestPointerDrawn(t *testing.T) {
	world := newTestWorld(t, Options{})
	world.MouseMove(5, 5)
	world.Render()
	pixels, width, _ := world.HeadlessPixels()
	if got := pixels[5*width+5]; got != colorPointer {
		t.Fatalf("pixel under pointer = %06x, want %06x", got, colorPointer)
	}

	world.MousePress(ButtonLeft)
	world.Render()
	pixels, _, _ = world.HeadlessPixels()
	if got := pixels[5*width+5]; got != colorPointerHeld {
		t.Fatalf("pixel under held pointer = %06x, want %06x", got, colorPointerHeld)
	}
}

func TestMoveClamps(t *testing.T) {
	world := newTestWorld(t, Options{})
	world.MouseMove(-100, 1000)
	world.MousePress(ButtonLeft)
	if got := world.Experience(); got[0] != ExperiencePerAction {
		t.Fatalf("Experience = %v, want clamped pointer over skill 0", got)
	}
}

func TestRunRendersOnTicks(t *testing.T) {
	fake := clock.Fake(epoch)
	world := newTestWorld(t, Options{Clock: fake, FrameInterval: 50 * time.Millisecond})

	rendered := make(chan int, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- world.Run(ctx, func() { rendered <- world.Frames() })
	}()

	fake.WaitForTimers(1)
	for want := 1; want <= 3; want++ {
		fake.Advance(50 * time.Millisecond)
		got := testutil.RequireReceive(t, rendered, 5*time.Second, "waiting for frame %d", want)
		if got != want {
			t.Fatalf("onFrame saw %d frames, want %d", got, want)
		}
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "waiting for Run to return"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestBridgeIntegration(t *testing.T) {
	world := newTestWorld(t, Options{WarmupFrames: 1})
	server, err := bridge.New(bridge.Config{
		ListenAddr: "127.0.0.1:0",
		Game:       world,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}
	world.Render()
	server.FrameRendered()

	frame, source, err := new(bridge.FrameEncoder).Encode(world)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if source != bridge.SourceLive || len(frame.Pixels) != 42*10*3 {
		t.Fatalf("Encode = %v frame of %d bytes", source, len(frame.Pixels))
	}
	if server.Frames().Current() != 1 {
		t.Fatalf("frame counter = %d, want 1", server.Frames().Current())
	}
}
