// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/rlbridge/lib/clock"
	"github.com/bureau-foundation/rlbridge/lib/metrics"
	"github.com/bureau-foundation/rlbridge/protocol"
)

// Defaults applied by New to zero Config fields.
const (
	DefaultStepTimeout  = time.Second
	DefaultMaxLineBytes = 4096
)

// DefaultListenAddr is the loopback address on the protocol's default
// port.
var DefaultListenAddr = fmt.Sprintf("127.0.0.1:%d", protocol.DefaultPort)

// Config configures a Bridge.
type Config struct {
	// ListenAddr is the TCP address to listen on. Empty means
	// DefaultListenAddr. Port 0 picks an ephemeral port; see Addr.
	ListenAddr string

	// Game is the host application. Required.
	Game Game

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Per-connection events are logged at Debug level; transport
	// failures at Warn; lifecycle events at Info.
	Logger *slog.Logger

	// Clock drives STEP timeouts. If nil, the real clock is used.
	Clock clock.Clock

	// StepTimeout bounds how long STEP waits for a new frame.
	StepTimeout time.Duration

	// MaxLineBytes is the longest command line accepted. A longer
	// line ends the session.
	MaxLineBytes int
}

// Bridge serves the control protocol for one Game. Create it with New,
// call Start once the game is constructed, and call FrameRendered from
// the render loop after every frame.
type Bridge struct {
	listenAddr   string
	game         Game
	logger       *slog.Logger
	clock        clock.Clock
	stepTimeout  time.Duration
	maxLineBytes int

	// listen is net.Listen outside tests.
	listen func(network, address string) (net.Listener, error)

	frames  *FrameClock
	encoder FrameEncoder

	mu          sync.Mutex
	started     bool
	listener    net.Listener
	cancel      context.CancelFunc
	done        chan struct{}
	connections sync.WaitGroup
}

// New validates config and returns an unstarted Bridge.
func New(config Config) (*Bridge, error) {
	if config.Game == nil {
		return nil, errors.New("bridge: Game is required")
	}
	if config.StepTimeout < 0 {
		return nil, fmt.Errorf("bridge: negative StepTimeout %v", config.StepTimeout)
	}
	if config.MaxLineBytes < 0 {
		return nil, fmt.Errorf("bridge: negative MaxLineBytes %d", config.MaxLineBytes)
	}

	b := &Bridge{
		listenAddr:   config.ListenAddr,
		game:         config.Game,
		logger:       config.Logger,
		clock:        config.Clock,
		stepTimeout:  config.StepTimeout,
		maxLineBytes: config.MaxLineBytes,
		listen:       net.Listen,
	}
	if b.listenAddr == "" {
		b.listenAddr = DefaultListenAddr
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.clock == nil {
		b.clock = clock.Real()
	}
	if b.stepTimeout == 0 {
		b.stepTimeout = DefaultStepTimeout
	}
	if b.maxLineBytes == 0 {
		b.maxLineBytes = DefaultMaxLineBytes
	}
	b.frames = NewFrameClock(b.clock)
	return b, nil
}

// Start binds the listener and begins accepting connections in a
// background goroutine. It returns once the listener is bound, or an
// error if binding fails. Calling Start on a bridge that is already
// started does nothing and returns nil. The bridge runs until Stop is
// called or ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}

	listener, err := b.listen("tcp", b.listenAddr)
	if err != nil {
		return fmt.Errorf("bridge: failed to listen on %s: %w", b.listenAddr, err)
	}

	b.started = true
	b.listener = listener
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})

	// Cancellation from either Stop or the parent context must unblock
	// Accept.
	context.AfterFunc(ctx, func() { listener.Close() })

	go func() {
		defer close(b.done)
		b.acceptLoop(ctx)
	}()

	b.logger.Info("bridge started",
		"listen_addr", listener.Addr().String(),
		"step_timeout", b.stepTimeout,
	)
	return nil
}

// Addr returns the listener's address, useful when binding to port 0.
// Returns nil if the bridge has not been started.
func (b *Bridge) Addr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// Stop closes the listener and every open session, then waits for all
// session goroutines to exit. Stop on an unstarted bridge returns
// immediately.
func (b *Bridge) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Wait blocks until the bridge has stopped.
func (b *Bridge) Wait() {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done != nil {
		<-done
	}
}

// FrameRendered records that the game finished rendering a frame and
// wakes every session blocked in STEP. It never blocks on sessions.
func (b *Bridge) FrameRendered() {
	metrics.SetFrameCounter(b.frames.Advance())
}

// Frames returns the bridge's frame clock.
func (b *Bridge) Frames() *FrameClock {
	return b.frames
}

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// acceptLoop accepts connections and runs one session goroutine per
// connection. It waits for all session goroutines to finish before
// returning, so that closing the done channel signals full
// quiescence.
func (b *Bridge) acceptLoop(ctx context.Context) {
	var connectionCount int64
	var backoff time.Duration

	for {
		connection, err := b.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				b.connections.Wait()
				b.logger.Info("bridge stopped")
				return
			}
			// Persistent failures such as EMFILE back off up to one
			// second between attempts.
			backoff = min(max(2*backoff, minAcceptBackoff), maxAcceptBackoff)
			b.logger.Error("accept failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
			case <-b.clock.After(backoff):
			}
			continue
		}
		backoff = 0

		connectionCount++
		connectionID := connectionCount
		b.connections.Add(1)
		go func() {
			defer b.connections.Done()
			b.handleConnection(ctx, connection, connectionID)
		}()
	}
}

func (b *Bridge) handleConnection(ctx context.Context, connection net.Conn, connectionID int64) {
	defer connection.Close()
	stopClose := context.AfterFunc(ctx, func() { connection.Close() })
	defer stopClose()

	metrics.RecordSessionStart()
	defer metrics.RecordSessionEnd()

	logger := b.logger.With("connection_id", connectionID)
	logger.Debug("connection accepted",
		"remote_addr", connection.RemoteAddr(),
	)

	newSession(b, connection, logger).run(ctx)

	logger.Debug("connection closed")
}
