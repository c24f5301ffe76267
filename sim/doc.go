// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sim is a small synthetic game that implements bridge.Game.
// It lets the bridge, its clients, and the capture tool run end to end
// without the real game client.
//
// The world is a horizontally scrolling field divided into one vertical
// band per skill. Pressing the left button over a band trains that
// skill; dragging pans the camera. Nothing is renderable until the
// configured number of warmup frames has been drawn, which mirrors a
// client that is still logging in. [World.Run] drives rendering from a
// clock ticker and calls a hook after every frame; the host passes
// Bridge.FrameRendered as that hook.
package sim
