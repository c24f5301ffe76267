// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/bureau-foundation/rlbridge/lib/clock"
)

// FrameClock counts rendered frames. One producer calls Advance once
// per frame; any number of sessions block in WaitAfter.
//
// Waiters are woken by closing a broadcast channel that Advance
// replaces on every increment, so a wake is never lost between a
// waiter checking the counter and starting to wait.
type FrameClock struct {
	clock clock.Clock

	mu      sync.Mutex
	counter uint64
	changed chan struct{}
}

// NewFrameClock returns a FrameClock at zero whose timeouts use clk.
func NewFrameClock(clk clock.Clock) *FrameClock {
	return &FrameClock{
		clock:   clk,
		changed: make(chan struct{}),
	}
}

// Advance increments the counter and wakes every waiter.
func (f *FrameClock) Advance() uint64 {
	f.mu.Lock()
	f.counter++
	value := f.counter
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()
	return value
}

// Current returns the counter.
func (f *FrameClock) Current() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counter
}

// WaitAfter blocks until the counter is strictly greater than
// baseline and returns it. If timeout elapses or ctx is done first,
// it returns the counter as it is at that moment, which may still be
// at or below baseline. The returned value can exceed baseline+1 when
// several frames were rendered between wakeups.
func (f *FrameClock) WaitAfter(ctx context.Context, baseline uint64, timeout time.Duration) uint64 {
	f.mu.Lock()
	if f.counter > baseline {
		value := f.counter
		f.mu.Unlock()
		return value
	}
	changed := f.changed
	f.mu.Unlock()

	deadline := f.clock.After(timeout)
	for {
		select {
		case <-changed:
			f.mu.Lock()
			if f.counter > baseline {
				value := f.counter
				f.mu.Unlock()
				return value
			}
			changed = f.changed
			f.mu.Unlock()
		case <-deadline:
			return f.Current()
		case <-ctx.Done():
			return f.Current()
		}
	}
}
