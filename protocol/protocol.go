// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPort is the port the bridge listens on unless configured
// otherwise.
const DefaultPort = 5656

// Command tokens, as written by clients. The bridge matches them
// case-insensitively.
const (
	CommandPing  = "PING"
	CommandMove  = "MOVE"
	CommandDown  = "DOWN"
	CommandUp    = "UP"
	CommandDrag  = "DRAG"
	CommandStep  = "STEP"
	CommandFrame = "FRAME"
	CommandState = "STATE"
	CommandReady = "READY"
	CommandQuit  = "QUIT"
)

// Response tokens.
const (
	ResponsePong  = "PONG"
	ResponseOK    = "OK"
	ResponseBye   = "BYE"
	ResponseError = "ERR"
	ResponseFrame = "FRAME"
	ResponseState = "STATE"
	ResponseReady = "READY"
)

// ReasonNoHeadless is the ERR suffix sent when no frame has ever been
// available.
const ReasonNoHeadless = "no-headless"

// Channels is the number of bytes per pixel in a frame payload.
const Channels = 3

// MaxDimension bounds frame width and height so that
// width*height*Channels cannot overflow.
const MaxDimension = 1 << 16

// MaxFrameBytes is the default cap on a frame payload a reader will
// allocate. The client's 765x503 buffer is about 1.1 MiB.
const MaxFrameBytes = 64 << 20

// ErrorLine returns "ERR" or "ERR reason".
func ErrorLine(reason string) string {
	if reason == "" {
		return ResponseError
	}
	return ResponseError + " " + reason
}

// ErrorReason returns the reason of an ERR line and whether line is
// an ERR line at all.
func ErrorReason(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != ResponseError {
		return "", false
	}
	return strings.Join(fields[1:], " "), true
}

// Frame is one encoded image: Width*Height pixels of packed R,G,B.
// A Frame is immutable once published; the bridge shares the same
// value between connections.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// Header returns the FRAME header advertising f's payload.
func (f *Frame) Header() FrameHeader {
	return FrameHeader{
		Width:    f.Width,
		Height:   f.Height,
		Channels: Channels,
		Length:   len(f.Pixels),
	}
}

// FrameHeader is the text line preceding a frame payload.
type FrameHeader struct {
	Width    int
	Height   int
	Channels int
	Length   int
}

// String formats the header line without its trailing newline.
func (h FrameHeader) String() string {
	return fmt.Sprintf("%s %d %d %d %d", ResponseFrame, h.Width, h.Height, h.Channels, h.Length)
}

// ParseFrameHeader parses "FRAME w h c len" and checks that len
// matches the dimensions.
func ParseFrameHeader(line string) (FrameHeader, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 || fields[0] != ResponseFrame {
		return FrameHeader{}, fmt.Errorf("protocol: bad frame header %q", line)
	}
	values, err := parseInts(fields[1:])
	if err != nil {
		return FrameHeader{}, fmt.Errorf("protocol: bad frame header %q: %w", line, err)
	}
	header := FrameHeader{Width: values[0], Height: values[1], Channels: values[2], Length: values[3]}
	if header.Width < 0 || header.Height < 0 || header.Width > MaxDimension || header.Height > MaxDimension ||
		header.Channels <= 0 || header.Channels > 4 {
		return FrameHeader{}, fmt.Errorf("protocol: bad frame dimensions in %q", line)
	}
	if header.Length != header.Width*header.Height*header.Channels {
		return FrameHeader{}, fmt.Errorf("protocol: frame length %d does not match %dx%dx%d",
			header.Length, header.Width, header.Height, header.Channels)
	}
	return header, nil
}

// State is the derived game state returned by STATE.
type State struct {
	TotalExperience   int64 `cbor:"total_experience"`
	TotalLevels       int   `cbor:"total_levels"`
	Health            int   `cbor:"health"`
	MaxHealth         int   `cbor:"max_health"`
	Animation         int   `cbor:"animation"`
	InteractingEntity int   `cbor:"interacting_entity"`
	LoopCycle         int   `cbor:"loop_cycle"`

	// SkillIndex is the skill with the largest experience gain since
	// this connection's previous STATE, or -1 when nothing increased.
	SkillIndex int `cbor:"skill_index"`
	// SkillDelta is that gain, 0 when SkillIndex is -1.
	SkillDelta int `cbor:"skill_delta"`
}

// String formats the STATE line without its trailing newline.
func (s State) String() string {
	return fmt.Sprintf("%s %d %d %d %d %d %d %d %d %d", ResponseState,
		s.TotalExperience, s.TotalLevels, s.Health, s.MaxHealth,
		s.Animation, s.InteractingEntity, s.LoopCycle,
		s.SkillIndex, s.SkillDelta)
}

// ParseState parses a STATE line. Extra trailing fields are ignored
// so that newer bridges can append values.
func ParseState(line string) (State, error) {
	fields := strings.Fields(line)
	if len(fields) < 10 || fields[0] != ResponseState {
		return State{}, fmt.Errorf("protocol: bad state line %q", line)
	}
	totalExperience, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("protocol: bad state line %q: %w", line, err)
	}
	values, err := parseInts(fields[2:10])
	if err != nil {
		return State{}, fmt.Errorf("protocol: bad state line %q: %w", line, err)
	}
	return State{
		TotalExperience:   totalExperience,
		TotalLevels:       values[0],
		Health:            values[1],
		MaxHealth:         values[2],
		Animation:         values[3],
		InteractingEntity: values[4],
		LoopCycle:         values[5],
		SkillIndex:        values[6],
		SkillDelta:        values[7],
	}, nil
}

// ReadyLine formats the READY response.
func ReadyLine(ready bool) string {
	if ready {
		return ResponseReady + " 1"
	}
	return ResponseReady + " 0"
}

// ParseReady parses a READY response.
func ParseReady(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != ResponseReady {
		return false, fmt.Errorf("protocol: bad ready line %q", line)
	}
	return fields[1] == "1", nil
}

func parseInts(fields []string) ([]int, error) {
	values := make([]int, len(fields))
	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}
