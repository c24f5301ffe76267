// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

// Input receives pointer events forwarded from MOVE, DOWN, UP, and
// DRAG. Calls arrive on session goroutines, possibly concurrently.
type Input interface {
	MouseMove(x, y int)
	MousePress(button int)
	MouseRelease(button int)
	MouseDrag(x, y int)
}

// Display exposes the headless render target.
type Display interface {
	// HeadlessPixels returns the most recently rendered buffer, one
	// 0x??RRGGBB value per pixel in row-major order, with its
	// dimensions. It returns nil pixels when nothing is renderable.
	// The bridge only reads the returned slice.
	HeadlessPixels() (pixels []uint32, width, height int)
}

// Stats exposes the scalar and per-skill values reported by STATE.
type Stats interface {
	Ready() bool
	TotalExperience() int64
	TotalLevels() int
	CurrentHealth() int
	MaxHealth() int
	Animation() int
	InteractingEntity() int
	LoopCycle() int

	// Experience returns the per-skill experience vector, or nil if
	// it is not available yet. The bridge does not retain the slice.
	Experience() []int
}

// Game is everything the bridge needs from the host application.
type Game interface {
	Input
	Display
	Stats
}
