// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"sync/atomic"

	"github.com/bureau-foundation/rlbridge/protocol"
)

// ErrNoHeadless is returned by Encode when there is no live buffer and
// no frame has ever been encoded.
var ErrNoHeadless = errors.New("bridge: no headless buffer")

// FrameSource says where an encoded frame came from.
type FrameSource int

const (
	// SourceLive frames were packed from the current headless buffer.
	SourceLive FrameSource = iota
	// SourceCache frames are the last live frame, re-sent because the
	// buffer was unavailable.
	SourceCache
)

func (s FrameSource) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourceCache:
		return "cache"
	default:
		return "unknown"
	}
}

// FrameEncoder packs headless buffers into R,G,B frames and remembers
// the last one. The zero value is ready to use and safe for
// concurrent Encode calls; the most recent successful encode wins the
// cache.
type FrameEncoder struct {
	last atomic.Pointer[protocol.Frame]
}

// Encode returns the display's current frame, or the cached frame if
// the display has nothing renderable. A buffer with fewer pixels than
// its dimensions promise counts as nothing renderable.
func (e *FrameEncoder) Encode(display Display) (*protocol.Frame, FrameSource, error) {
	pixels, width, height := display.HeadlessPixels()
	if pixels == nil || width <= 0 || height <= 0 || len(pixels) < width*height {
		if cached := e.last.Load(); cached != nil {
			return cached, SourceCache, nil
		}
		return nil, SourceCache, ErrNoHeadless
	}

	frame := &protocol.Frame{
		Width:  width,
		Height: height,
		Pixels: PackRGB(pixels[:width*height]),
	}
	e.last.Store(frame)
	return frame, SourceLive, nil
}

// Cached returns the most recently encoded frame, or nil.
func (e *FrameEncoder) Cached() *protocol.Frame {
	return e.last.Load()
}

// PackRGB converts 0x??RRGGBB pixels to three bytes each in R,G,B
// order. The high byte is discarded.
func PackRGB(pixels []uint32) []byte {
	packed := make([]byte, len(pixels)*protocol.Channels)
	index := 0
	for _, pixel := range pixels {
		packed[index] = byte(pixel >> 16)
		packed[index+1] = byte(pixel >> 8)
		packed[index+2] = byte(pixel)
		index += protocol.Channels
	}
	return packed
}
