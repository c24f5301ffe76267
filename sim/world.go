// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/rlbridge/lib/clock"
)

// Buttons as sent in DOWN and UP.
const (
	ButtonLeft  = 1
	ButtonRight = 3
)

const (
	// ExperiencePerAction is awarded to the skill under the pointer
	// on each left press.
	ExperiencePerAction = 25

	// ExperiencePerLevel is the experience between consecutive levels.
	ExperiencePerLevel = 100

	// MaxLevel caps each skill's level.
	MaxLevel = 99

	// AnimationTraining is the animation id while the left button is
	// held over a skill band. -1 means idle.
	AnimationTraining = 832

	// DefaultHealth is the starting and maximum health.
	DefaultHealth = 10
)

// Options configures a World. Zero fields take the defaults noted.
type Options struct {
	// Width and Height are the headless buffer size. Default: 765x503
	Width  int
	Height int

	// Skills is the length of the experience vector. Default: 21
	Skills int

	// WarmupFrames is how many frames render before the buffer is
	// published and Ready reports true.
	WarmupFrames int

	// FrameInterval is the render period used by Run. Default: 20ms
	FrameInterval time.Duration

	// Clock drives Run's ticker and render timing. Default: real
	Clock clock.Clock

	// Logger receives lifecycle events. Default: slog.Default()
	Logger *slog.Logger
}

// World is the simulated game. All methods are safe for concurrent
// use; input arrives on bridge session goroutines while Run renders
// on its own.
type World struct {
	width         int
	height        int
	skills        int
	warmupFrames  int
	frameInterval time.Duration
	clock         clock.Clock
	logger        *slog.Logger

	mu         sync.Mutex
	pointerX   int
	pointerY   int
	held       map[int]bool
	cameraX    int
	cameraY    int
	experience []int
	health     int
	animation  int
	target     int
	frames     int
	loopCycle  int
	published  []uint32
}

// New returns a World that has not rendered anything yet.
func New(options Options) (*World, error) {
	if options.Width == 0 {
		options.Width = 765
	}
	if options.Height == 0 {
		options.Height = 503
	}
	if options.Skills == 0 {
		options.Skills = 21
	}
	if options.FrameInterval == 0 {
		options.FrameInterval = 20 * time.Millisecond
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Width < 0 || options.Height < 0 {
		return nil, fmt.Errorf("sim: invalid size %dx%d", options.Width, options.Height)
	}
	if options.Skills < 0 || options.WarmupFrames < 0 || options.FrameInterval < 0 {
		return nil, fmt.Errorf("sim: negative option in %+v", options)
	}

	return &World{
		width:         options.Width,
		height:        options.Height,
		skills:        options.Skills,
		warmupFrames:  options.WarmupFrames,
		frameInterval: options.FrameInterval,
		clock:         options.Clock,
		logger:        options.Logger,
		held:          make(map[int]bool),
		experience:    make([]int, options.Skills),
		health:        DefaultHealth,
		animation:     -1,
		target:        -1,
	}, nil
}

// Run renders one frame per FrameInterval and calls onFrame after
// each, until ctx is cancelled.
func (w *World) Run(ctx context.Context, onFrame func()) error {
	ticker := w.clock.NewTicker(w.frameInterval)
	defer ticker.Stop()

	w.logger.Info("simulation running",
		"width", w.width,
		"height", w.height,
		"frame_interval", w.frameInterval,
		"warmup_frames", w.warmupFrames,
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Render()
			if onFrame != nil {
				onFrame()
			}
		}
	}
}

// Frames returns how many frames have been rendered.
func (w *World) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// MouseMove moves the pointer, clamped to the buffer.
func (w *World) MouseMove(x, y int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pointerX, w.pointerY = w.clampX(x), w.clampY(y)
}

// MousePress holds button. A left press trains the skill under the
// pointer.
func (w *World) MousePress(button int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.held[button] = true
	if button != ButtonLeft || w.skills == 0 {
		return
	}
	skill := w.skillAtLocked(w.pointerX)
	w.experience[skill] += ExperiencePerAction
	w.animation = AnimationTraining
	w.target = skill
}

// MouseRelease releases button.
func (w *World) MouseRelease(button int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.held, button)
	if button == ButtonLeft {
		w.animation = -1
		w.target = -1
	}
}

// MouseDrag moves the pointer and, while any button is held, pans the
// camera by the pointer's movement.
func (w *World) MouseDrag(x, y int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	x, y = w.clampX(x), w.clampY(y)
	if len(w.held) > 0 {
		w.cameraX -= x - w.pointerX
		w.cameraY -= y - w.pointerY
	}
	w.pointerX, w.pointerY = x, y
}

// HeadlessPixels returns the last published frame, or nil during
// warmup. Published buffers are never written again.
func (w *World) HeadlessPixels() ([]uint32, int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.published == nil {
		return nil, 0, 0
	}
	return w.published, w.width, w.height
}

// Ready reports whether warmup has finished.
func (w *World) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames >= w.warmupFrames && w.published != nil
}

// TotalExperience is the sum of the experience vector.
func (w *World) TotalExperience() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total int64
	for _, value := range w.experience {
		total += int64(value)
	}
	return total
}

// TotalLevels is the sum of every skill's level.
func (w *World) TotalLevels() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, value := range w.experience {
		total += LevelFor(value)
	}
	return total
}

func (w *World) CurrentHealth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.health
}

func (w *World) MaxHealth() int { return DefaultHealth }

func (w *World) Animation() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.animation
}

// InteractingEntity is the skill band being trained, or -1.
func (w *World) InteractingEntity() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

func (w *World) LoopCycle() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loopCycle
}

// Experience returns a copy of the experience vector.
func (w *World) Experience() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int(nil), w.experience...)
}

// LevelFor converts experience to a level in [1, MaxLevel].
func LevelFor(experience int) int {
	return min(MaxLevel, 1+max(0, experience)/ExperiencePerLevel)
}

func (w *World) clampX(x int) int { return min(max(x, 0), max(w.width-1, 0)) }
func (w *World) clampY(y int) int { return min(max(y, 0), max(w.height-1, 0)) }

// skillAtLocked maps a screen column to the skill band under it,
// accounting for the camera.
func (w *World) skillAtLocked(x int) int {
	return skillAt(x+w.cameraX, w.width, w.skills)
}

func skillAt(worldX, width, skills int) int {
	if width <= 0 || skills <= 0 {
		return 0
	}
	column := ((worldX % width) + width) % width
	return column * skills / width
}
