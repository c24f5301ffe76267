// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"errors"
	"io"

	"github.com/bureau-foundation/rlbridge/protocol"
)

// Summary describes a whole archive.
type Summary struct {
	Header Header

	Records int

	// DuplicateFrames counts records whose digest equals the previous
	// record's: STEPs that timed out and re-sent the same image.
	DuplicateFrames int

	Width  int
	Height int

	RawBytes    int64
	StoredBytes int64

	// Compressed counts records stored with each codec.
	Compressed map[Compression]int

	TotalReward float64
	First       protocol.State
	Last        protocol.State
}

// Ratio is RawBytes/StoredBytes, or 0 for an empty archive.
func (s Summary) Ratio() float64 {
	if s.StoredBytes == 0 {
		return 0
	}
	return float64(s.RawBytes) / float64(s.StoredBytes)
}

// Summarize reads every record from r. Any record that fails to
// decode or verify fails the whole summary.
func Summarize(r io.Reader) (Summary, error) {
	reader, err := NewReader(r)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Header:     reader.Header(),
		Compressed: make(map[Compression]int),
	}
	var previous Digest
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return Summary{}, err
		}

		if summary.Records == 0 {
			summary.First = record.State
		} else if record.Digest == previous {
			summary.DuplicateFrames++
		}
		previous = record.Digest
		summary.Records++
		summary.Width, summary.Height = record.Width, record.Height
		summary.RawBytes += int64(record.Size)
		summary.StoredBytes += int64(record.Stored)
		summary.Compressed[record.Compression]++
		summary.TotalReward += record.Reward
		summary.Last = record.State
	}
}
