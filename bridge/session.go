// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/bureau-foundation/rlbridge/lib/metrics"
	"github.com/bureau-foundation/rlbridge/lib/netutil"
	"github.com/bureau-foundation/rlbridge/protocol"
)

// errQuit ends a session after BYE has been written.
var errQuit = errors.New("quit")

// session is one control connection. Everything in it is owned by the
// session goroutine.
type session struct {
	bridge     *Bridge
	connection net.Conn
	scanner    *bufio.Scanner
	writer     *bufio.Writer
	logger     *slog.Logger

	// cursor is the frame counter value this connection has caught up
	// to. STEP waits for a frame strictly after it.
	cursor uint64

	experience ExperienceBaseline
}

func newSession(b *Bridge, connection net.Conn, logger *slog.Logger) *session {
	// Scanner accepts tokens up to the larger of max and the initial
	// buffer's capacity, so the buffer must not exceed the limit.
	scanner := bufio.NewScanner(connection)
	scanner.Buffer(make([]byte, 0, min(256, b.maxLineBytes)), b.maxLineBytes)
	return &session{
		bridge:     b,
		connection: connection,
		scanner:    scanner,
		writer:     bufio.NewWriter(connection),
		logger:     logger,
		cursor:     b.frames.Current(),
	}
}

// run reads and answers commands until the peer disconnects, a socket
// error occurs, QUIT is handled, or ctx is cancelled.
func (s *session) run(ctx context.Context) {
	for s.scanner.Scan() {
		command, ok := ParseCommand(s.scanner.Text())
		if !ok {
			continue
		}
		err := s.dispatch(ctx, command)
		if errors.Is(err, errQuit) {
			s.logger.Debug("client quit")
			return
		}
		if err != nil {
			s.logTransportError("write failed", err)
			return
		}
	}
	if err := s.scanner.Err(); err != nil {
		s.logTransportError("read failed", err)
	}
}

func (s *session) logTransportError(message string, err error) {
	if netutil.IsExpectedCloseError(err) {
		s.logger.Debug(message, "error", err)
		return
	}
	s.logger.Warn(message, "error", err)
}

// dispatch handles one command and writes its response. The returned
// error is a transport error or errQuit; protocol errors are answered
// with ERR and return nil.
func (s *session) dispatch(ctx context.Context, command Command) error {
	game := s.bridge.game

	switch command.Name {
	case protocol.CommandPing:
		return s.respond(command, true, protocol.ResponsePong)

	case protocol.CommandMove:
		if !command.HasArgs(2) {
			return s.respond(command, false, protocol.ResponseError)
		}
		game.MouseMove(command.Int(0), command.Int(1))
		return s.respond(command, true, protocol.ResponseOK)

	case protocol.CommandDown:
		if !command.HasArgs(1) {
			return s.respond(command, false, protocol.ResponseError)
		}
		game.MousePress(command.Int(0))
		return s.respond(command, true, protocol.ResponseOK)

	case protocol.CommandUp:
		if !command.HasArgs(1) {
			return s.respond(command, false, protocol.ResponseError)
		}
		game.MouseRelease(command.Int(0))
		return s.respond(command, true, protocol.ResponseOK)

	case protocol.CommandDrag:
		if !command.HasArgs(2) {
			return s.respond(command, false, protocol.ResponseError)
		}
		game.MouseDrag(command.Int(0), command.Int(1))
		return s.respond(command, true, protocol.ResponseOK)

	case protocol.CommandStep:
		started := s.bridge.clock.Now()
		observed := s.bridge.frames.WaitAfter(ctx, s.cursor, s.bridge.stepTimeout)
		metrics.RecordStep(s.bridge.clock.Now().Sub(started), observed > s.cursor)
		s.cursor = observed
		return s.sendFrame(command)

	case protocol.CommandFrame:
		err := s.sendFrame(command)
		s.cursor = s.bridge.frames.Current()
		return err

	case protocol.CommandState:
		state := Snapshot(game, &s.experience)
		return s.respond(command, true, state.String())

	case protocol.CommandReady:
		return s.respond(command, true, protocol.ReadyLine(game.Ready()))

	case protocol.CommandQuit:
		if err := s.respond(command, true, protocol.ResponseBye); err != nil {
			return err
		}
		return errQuit

	default:
		metrics.RecordCommand("unknown", false)
		return s.writeLine(protocol.ResponseError)
	}
}

// sendFrame writes a FRAME header and payload, or ERR no-headless.
func (s *session) sendFrame(command Command) error {
	frame, source, err := s.bridge.encoder.Encode(s.bridge.game)
	if errors.Is(err, ErrNoHeadless) {
		metrics.RecordFrame(metrics.SourceUnavailable)
		return s.respond(command, false, protocol.ErrorLine(protocol.ReasonNoHeadless))
	}
	if err != nil {
		return err
	}
	metrics.RecordFrame(source.String())
	metrics.RecordCommand(command.Name, true)

	if _, err := s.writer.WriteString(frame.Header().String()); err != nil {
		return err
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := s.writer.Write(frame.Pixels); err != nil {
		return err
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("sending %dx%d frame: %w", frame.Width, frame.Height, err)
	}
	return nil
}

func (s *session) respond(command Command, ok bool, line string) error {
	metrics.RecordCommand(command.Name, ok)
	return s.writeLine(line)
}

func (s *session) writeLine(line string) error {
	if _, err := s.writer.WriteString(line); err != nil {
		return err
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return err
	}
	return s.writer.Flush()
}
