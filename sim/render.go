// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sim

import (
	"github.com/bureau-foundation/rlbridge/lib/metrics"
)

const (
	tileSize      = 32
	crosshairSize = 4

	colorPointer     = 0xFFFFFF
	colorPointerHeld = 0xFF3030
)

// scene is everything Render needs, copied out under the lock so that
// drawing does not block input.
type scene struct {
	width, height    int
	skills           int
	cameraX, cameraY int
	pointerX         int
	pointerY         int
	held             bool
	levels           []int
}

// Render draws one frame. Once WarmupFrames frames have been drawn,
// each frame is published as a fresh buffer.
func (w *World) Render() {
	started := w.clock.Now()

	w.mu.Lock()
	current := scene{
		width:    w.width,
		height:   w.height,
		skills:   w.skills,
		cameraX:  w.cameraX,
		cameraY:  w.cameraY,
		pointerX: w.pointerX,
		pointerY: w.pointerY,
		held:     len(w.held) > 0,
		levels:   make([]int, len(w.experience)),
	}
	for i, value := range w.experience {
		current.levels[i] = LevelFor(value)
	}
	w.mu.Unlock()

	pixels := current.draw()

	w.mu.Lock()
	w.frames++
	w.loopCycle++
	warmedUp := w.frames >= w.warmupFrames
	firstPublish := warmedUp && w.published == nil
	if warmedUp {
		w.published = pixels
	}
	frames := w.frames
	w.mu.Unlock()

	if firstPublish {
		w.logger.Info("warmup complete, headless buffer available", "frames", frames)
	}
	metrics.RecordRender(w.clock.Now().Sub(started))
}

func (s scene) draw() []uint32 {
	pixels := make([]uint32, s.width*s.height)
	for y := range s.height {
		worldY := y + s.cameraY
		row := pixels[y*s.width : (y+1)*s.width]
		for x := range s.width {
			row[x] = s.background(x+s.cameraX, worldY)
		}
	}
	s.drawPointer(pixels)
	return pixels
}

// background colors a world position by its skill band, brightened by
// the skill's level, with a checkerboard so that panning is visible.
func (s scene) background(worldX, worldY int) uint32 {
	if s.skills == 0 {
		return 0
	}
	skill := skillAt(worldX, s.width, s.skills)
	red, green, blue := bandColor(skill)

	boost := uint32(min(s.levels[skill]-1, 64))
	red, green, blue = red+boost, green+boost, blue+boost

	if (floorDiv(worldX, tileSize)+floorDiv(worldY, tileSize))&1 == 1 {
		red, green, blue = red*3/4, green*3/4, blue*3/4
	}
	return red<<16 | green<<8 | blue
}

func (s scene) drawPointer(pixels []uint32) {
	color := uint32(colorPointer)
	if s.held {
		color = colorPointerHeld
	}
	for offset := -crosshairSize; offset <= crosshairSize; offset++ {
		s.set(pixels, s.pointerX+offset, s.pointerY, color)
		s.set(pixels, s.pointerX, s.pointerY+offset, color)
	}
}

func (s scene) set(pixels []uint32, x, y int, color uint32) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return
	}
	pixels[y*s.width+x] = color
}

// bandColor spreads skills around a fixed palette of channel levels.
// Every channel stays at or below 190 so the level boost cannot
// overflow a byte.
func bandColor(skill int) (red, green, blue uint32) {
	levels := [...]uint32{40, 90, 140, 190}
	red = levels[skill%4]
	green = levels[(skill/4)%4]
	blue = levels[(skill/16+skill)%4]
	return red, green, blue
}

func floorDiv(a, b int) int {
	quotient := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		quotient--
	}
	return quotient
}
