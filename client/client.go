// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is a typed Go client for the rlbridge control
// protocol. It is what training harnesses, the capture tool, and the
// integration tests use to drive a bridge.
//
// A Client is one control connection and is safe for concurrent use;
// requests are serialized so that each response is matched to its
// command. A transport error leaves the connection in an unknown
// state: close it and dial again.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/rlbridge/lib/clock"
	"github.com/bureau-foundation/rlbridge/protocol"
)

// DefaultTimeout is the per-request I/O deadline used when
// Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNoHeadless is returned by Step and Frame when the bridge has
	// never had a frame to send. It is transient while the game starts.
	ErrNoHeadless = errors.New("client: no headless buffer yet")

	// ErrRejected is returned when the bridge answers ERR.
	ErrRejected = errors.New("client: command rejected")

	// ErrUnexpectedResponse is returned when a response line does not
	// match what the command produces.
	ErrUnexpectedResponse = errors.New("client: unexpected response")
)

// Options configures Dial.
type Options struct {
	// Timeout bounds each request's write and read. STEP can block
	// on the bridge for its step timeout, so this must be larger.
	Timeout time.Duration

	// Clock drives WaitReady polling. If nil, the real clock is used.
	Clock clock.Clock

	// Logger receives debug output. If nil, slog.Default() is used.
	Logger *slog.Logger

	// MaxFrameBytes refuses frame payloads larger than this before
	// allocating them. Default: protocol.MaxFrameBytes
	MaxFrameBytes int
}

// Client is one connection to a bridge.
type Client struct {
	timeout       time.Duration
	maxFrameBytes int
	clock         clock.Clock
	logger        *slog.Logger

	mu         sync.Mutex
	connection net.Conn
	reader     *bufio.Reader
}

// Dial connects to the bridge at address.
func Dial(ctx context.Context, address string, options Options) (*Client, error) {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.MaxFrameBytes <= 0 {
		options.MaxFrameBytes = protocol.MaxFrameBytes
	}

	dialer := net.Dialer{Timeout: options.Timeout}
	connection, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("client: connecting to %s: %w", address, err)
	}
	options.Logger.Debug("connected to bridge", "address", address)

	return &Client{
		timeout:       options.Timeout,
		maxFrameBytes: options.MaxFrameBytes,
		clock:         options.Clock,
		logger:        options.Logger,
		connection:    connection,
		reader:        bufio.NewReader(connection),
	}, nil
}

// Close closes the connection without sending QUIT.
func (client *Client) Close() error {
	return client.connection.Close()
}

// Ping checks that the bridge is answering.
func (client *Client) Ping() error {
	return client.expect(protocol.ResponsePong, protocol.CommandPing)
}

// Move moves the pointer to (x, y).
func (client *Client) Move(x, y int) error {
	return client.expect(protocol.ResponseOK, protocol.CommandMove, x, y)
}

// Down presses button.
func (client *Client) Down(button int) error {
	return client.expect(protocol.ResponseOK, protocol.CommandDown, button)
}

// Up releases button.
func (client *Client) Up(button int) error {
	return client.expect(protocol.ResponseOK, protocol.CommandUp, button)
}

// Drag moves the pointer to (x, y) with buttons held.
func (client *Client) Drag(x, y int) error {
	return client.expect(protocol.ResponseOK, protocol.CommandDrag, x, y)
}

// Click moves to (x, y), then presses and releases button.
func (client *Client) Click(x, y, button int) error {
	if err := client.Move(x, y); err != nil {
		return err
	}
	if err := client.Down(button); err != nil {
		return err
	}
	return client.Up(button)
}

// Step waits for the next rendered frame and returns it.
func (client *Client) Step() (*protocol.Frame, error) {
	return client.frame(protocol.CommandStep)
}

// Frame returns the current frame without waiting.
func (client *Client) Frame() (*protocol.Frame, error) {
	return client.frame(protocol.CommandFrame)
}

// State returns the game state and the largest experience gain since
// this connection's previous State call.
func (client *Client) State() (protocol.State, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	line, err := client.roundTrip(protocol.CommandState)
	if err != nil {
		return protocol.State{}, err
	}
	state, err := protocol.ParseState(line)
	if err != nil {
		return protocol.State{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return state, nil
}

// Ready reports whether the game is logged in and playable.
func (client *Client) Ready() (bool, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	line, err := client.roundTrip(protocol.CommandReady)
	if err != nil {
		return false, err
	}
	ready, err := protocol.ParseReady(line)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return ready, nil
}

// WaitReady polls Ready every poll interval until it reports true,
// Ready fails, or ctx is done.
func (client *Client) WaitReady(ctx context.Context, poll time.Duration) error {
	for attempt := 1; ; attempt++ {
		ready, err := client.Ready()
		if err != nil {
			return err
		}
		if ready {
			client.logger.Debug("bridge ready", "polls", attempt)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("client: waiting for READY: %w", ctx.Err())
		case <-client.clock.After(poll):
		}
	}
}

// Quit asks the bridge to end the session and closes the connection.
func (client *Client) Quit() error {
	err := client.expect(protocol.ResponseBye, protocol.CommandQuit)
	closeErr := client.Close()
	if err != nil {
		return err
	}
	return closeErr
}

// expect sends a command and checks that the response is exactly want.
func (client *Client) expect(want string, command string, args ...int) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	line, err := client.roundTrip(command, args...)
	if err != nil {
		return err
	}
	if line != want {
		return fmt.Errorf("%w to %s: %q", ErrUnexpectedResponse, command, line)
	}
	return nil
}

func (client *Client) frame(command string) (*protocol.Frame, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	line, err := client.roundTrip(command)
	if err != nil {
		return nil, err
	}
	header, err := protocol.ParseFrameHeader(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if header.Channels != protocol.Channels {
		return nil, fmt.Errorf("%w: %d channels", ErrUnexpectedResponse, header.Channels)
	}
	if header.Length > client.maxFrameBytes {
		// The payload is left unread, so the stream cannot be reused.
		client.connection.Close()
		return nil, fmt.Errorf("%w: %d byte frame exceeds limit of %d",
			ErrUnexpectedResponse, header.Length, client.maxFrameBytes)
	}

	pixels := make([]byte, header.Length)
	if _, err := io.ReadFull(client.reader, pixels); err != nil {
		return nil, fmt.Errorf("client: reading %d byte frame: %w", header.Length, err)
	}
	return &protocol.Frame{Width: header.Width, Height: header.Height, Pixels: pixels}, nil
}

// roundTrip writes one command line and reads one response line. ERR
// responses are returned as errors. The caller holds mu.
func (client *Client) roundTrip(command string, args ...int) (string, error) {
	//nolint:realclock socket deadlines are wall-clock
	if err := client.connection.SetDeadline(time.Now().Add(client.timeout)); err != nil {
		return "", fmt.Errorf("client: setting deadline: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(command)
	for _, arg := range args {
		fmt.Fprintf(&builder, " %d", arg)
	}
	builder.WriteByte('\n')
	if _, err := io.WriteString(client.connection, builder.String()); err != nil {
		return "", fmt.Errorf("client: sending %s: %w", command, err)
	}

	line, err := client.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("client: reading %s response: %w", command, err)
	}
	line = strings.TrimRight(line, "\r\n")

	if reason, isError := protocol.ErrorReason(line); isError {
		if reason == protocol.ReasonNoHeadless {
			return "", ErrNoHeadless
		}
		if reason == "" {
			return "", fmt.Errorf("%w: %s", ErrRejected, command)
		}
		return "", fmt.Errorf("%w: %s: %s", ErrRejected, command, reason)
	}
	return line, nil
}
