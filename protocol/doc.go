// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the rlbridge control protocol shared by the
// bridge and its clients.
//
// The protocol is synchronous and line-oriented over TCP: the client
// writes one \n-terminated command, the bridge writes exactly one
// response line. Command tokens are case-insensitive and arguments are
// whitespace-separated base-10 integers.
//
//	PING            -> PONG
//	MOVE x y        -> OK | ERR
//	DOWN button     -> OK | ERR
//	UP button       -> OK | ERR
//	DRAG x y        -> OK | ERR
//	STEP            -> FRAME w h 3 len <len raw bytes> | ERR no-headless
//	FRAME           -> FRAME w h 3 len <len raw bytes> | ERR no-headless
//	STATE           -> STATE exp levels hp maxHp anim interacting loopCycle skillIndex skillDelta
//	READY           -> READY 1 | READY 0
//	QUIT            -> BYE, then the bridge closes the connection
//
// A FRAME response is the only one followed by binary data: exactly
// len = w*h*3 bytes of packed R,G,B pixels in row-major order, with no
// delimiter before the next line.
//
// Malformed commands are answered with ERR and the session continues.
// The one exception is a command line longer than the bridge's line
// limit (4096 bytes by default, bridge.max_line_bytes in the config):
// a byte stream cannot be resynchronized after a truncated line, so
// the bridge closes the connection instead.
//
// Frame dimensions are bounded by [MaxDimension], and clients refuse
// payloads larger than [MaxFrameBytes] unless configured otherwise.
package protocol
