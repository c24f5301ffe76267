// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source for everything in rlbridge that
// waits: the frame clock's bounded STEP wait, the simulator's render
// ticker, the client's READY polling, and the capture recorder's
// retry backoff.
//
// Production code takes a [Clock] and uses [Real]. Tests use [Fake],
// whose time only moves when [FakeClock.Advance] is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { result <- frames.WaitAfter(ctx, 0, time.Second) }()
//	c.WaitForTimers(1)      // the waiter has armed its timeout
//	c.Advance(time.Second)  // the timeout fires deterministically
//
// Socket deadlines are the one exception: they are enforced by the
// kernel and always use wall-clock time.
package clock
