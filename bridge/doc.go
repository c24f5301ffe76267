// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge exposes a running game to an external training
// process over a line-oriented TCP control protocol.
//
// A controller connects, injects pointer input (MOVE, DOWN, UP, DRAG),
// and pulls observations: STEP blocks until the game renders a frame
// newer than the last one this connection saw and returns it as raw
// R,G,B bytes; FRAME returns the current frame without waiting; STATE
// reports scalar game values plus the largest per-skill experience
// gain since the connection's previous STATE. The wire format is
// documented in package protocol.
//
// [New] returns an unstarted [Bridge] bound to a [Game]. Start binds
// the listener and serves each accepted connection on its own
// goroutine. The host's render loop calls [Bridge.FrameRendered] once
// per frame; this advances the [FrameClock] that STEP waits on.
// Frames are packed by a [FrameEncoder], which keeps the last frame so
// that a momentarily missing buffer is answered with the previous
// image instead of an error.
//
// Stop, or cancellation of the context passed to Start, closes the
// listener and every open session and waits for the session
// goroutines to drain.
package bridge
