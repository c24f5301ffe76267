// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"errors"
	"io"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/bureau-foundation/rlbridge/lib/codec"
	"github.com/bureau-foundation/rlbridge/protocol"
)

var created = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

// gradientFrame is a compressible width x height frame whose bytes
// depend on seed.
func gradientFrame(width, height int, seed byte) *protocol.Frame {
	pixels := make([]byte, width*height*protocol.Channels)
	for i := range pixels {
		pixels[i] = byte(i/protocol.Channels%width) + seed
	}
	return &protocol.Frame{Width: width, Height: height, Pixels: pixels}
}

func noiseFrame(width, height int) *protocol.Frame {
	random := rand.New(rand.NewPCG(1, 2))
	pixels := make([]byte, width*height*protocol.Channels)
	for i := range pixels {
		pixels[i] = byte(random.UintN(256))
	}
	return &protocol.Frame{Width: width, Height: height, Pixels: pixels}
}

func TestCompressionNames(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompression(compression.String())
		if err != nil {
			t.Fatalf("ParseCompression(%q): %v", compression.String(), err)
		}
		if parsed != compression {
			t.Fatalf("ParseCompression(%q) = %v", compression.String(), parsed)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Fatal("ParseCompression(gzip) succeeded")
	}
}

func TestCompressFallsBackForNoise(t *testing.T) {
	noise := noiseFrame(64, 64).Pixels
	for _, preferred := range []Compression{CompressionLZ4, CompressionZstd} {
		stored, used, err := compress(noise, preferred)
		if err != nil {
			t.Fatalf("compress(%v): %v", preferred, err)
		}
		if used != CompressionNone {
			t.Errorf("compress(%v) of noise used %v, want none", preferred, used)
		}
		if !bytes.Equal(stored, noise) {
			t.Errorf("compress(%v) fallback altered the data", preferred)
		}
	}
}

func TestCompressShrinksGradient(t *testing.T) {
	raw := gradientFrame(128, 64, 0).Pixels
	for _, preferred := range []Compression{CompressionLZ4, CompressionZstd} {
		stored, used, err := compress(raw, preferred)
		if err != nil {
			t.Fatalf("compress(%v): %v", preferred, err)
		}
		if used != preferred {
			t.Fatalf("compress(%v) used %v", preferred, used)
		}
		if len(stored) >= len(raw) {
			t.Fatalf("compress(%v) stored %d bytes for %d raw", preferred, len(stored), len(raw))
		}
		restored, err := decompress(stored, used, len(raw))
		if err != nil {
			t.Fatalf("decompress(%v): %v", used, err)
		}
		if !bytes.Equal(restored, raw) {
			t.Fatalf("decompress(%v) did not restore the input", used)
		}
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	if _, err := decompress([]byte{1, 2, 3}, CompressionNone, 4); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestFrameDigest(t *testing.T) {
	a := FrameDigest([]byte{1, 2, 3})
	if a != FrameDigest([]byte{1, 2, 3}) {
		t.Fatal("digest is not deterministic")
	}
	if a == FrameDigest([]byte{1, 2, 4}) {
		t.Fatal("different frames share a digest")
	}
	if len(a.String()) != 64 || len(a.Short()) != 12 {
		t.Fatalf("String/Short lengths = %d/%d", len(a.String()), len(a.Short()))
	}
}

func writeArchive(t *testing.T, compression Compression, frames []*protocol.Frame) *bytes.Buffer {
	t.Helper()
	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, Header{
		RunID:       "run-1",
		Address:     "127.0.0.1:5656",
		Compression: compression,
		CreatedAt:   created,
	})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i, frame := range frames {
		state := protocol.State{TotalExperience: int64(100 * (i + 1)), SkillIndex: -1}
		if _, err := writer.Append(frame, state, float64(i)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if writer.Count() != uint64(len(frames)) {
		t.Fatalf("Count = %d, want %d", writer.Count(), len(frames))
	}
	return &buffer
}

func TestArchiveReadBack(t *testing.T) {
	frames := []*protocol.Frame{
		gradientFrame(32, 16, 0),
		noiseFrame(32, 16),
		gradientFrame(32, 16, 7),
	}
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			reader, err := NewReader(writeArchive(t, compression, frames))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			header := reader.Header()
			if header.Format != Format || header.RunID != "run-1" || header.Compression != compression {
				t.Fatalf("header = %+v", header)
			}
			if !header.CreatedAt.Equal(created) {
				t.Fatalf("CreatedAt = %v, want %v", header.CreatedAt, created)
			}

			for i, frame := range frames {
				record, err := reader.Next()
				if err != nil {
					t.Fatalf("Next %d: %v", i, err)
				}
				if record.Sequence != uint64(i) {
					t.Errorf("Sequence = %d, want %d", record.Sequence, i)
				}
				if record.Width != 32 || record.Height != 16 || record.Size != len(frame.Pixels) {
					t.Errorf("record %d = %dx%d size %d", i, record.Width, record.Height, record.Size)
				}
				if !bytes.Equal(record.Pixels, frame.Pixels) {
					t.Errorf("record %d pixels differ", i)
				}
				if record.State.TotalExperience != int64(100*(i+1)) || record.Reward != float64(i) {
					t.Errorf("record %d state/reward = %+v/%v", i, record.State, record.Reward)
				}
			}
			if _, err := reader.Next(); !errors.Is(err, io.EOF) {
				t.Fatalf("Next after last record: err = %v, want io.EOF", err)
			}
		})
	}
}

func TestAppendRejectsShortFrame(t *testing.T) {
	writer, err := NewWriter(io.Discard, Header{})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	_, err = writer.Append(&protocol.Frame{Width: 2, Height: 2, Pixels: make([]byte, 5)}, protocol.State{}, 0)
	if err == nil {
		t.Fatal("expected error for a frame shorter than its dimensions")
	}
}

func TestReaderRejectsUnknownFormat(t *testing.T) {
	data, err := codec.Marshal(Header{Format: "something-else/9"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := NewReader(bytes.NewReader(data)); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("NewReader: err = %v, want ErrUnknownFormat", err)
	}
}

// encodeRawArchive writes a valid header followed by records exactly
// as given, bypassing Writer's checks.
func encodeRawArchive(t *testing.T, records ...Record) *bytes.Buffer {
	t.Helper()
	var buffer bytes.Buffer
	encoder := codec.NewEncoder(&buffer)
	if err := encoder.Encode(Header{Format: Format}); err != nil {
		t.Fatalf("Encode header: %v", err)
	}
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode record: %v", err)
		}
	}
	return &buffer
}

func TestReaderDetectsCorruption(t *testing.T) {
	reader, err := NewReader(encodeRawArchive(t, Record{
		Width:       1,
		Height:      1,
		Compression: CompressionNone,
		Size:        3,
		Digest:      FrameDigest([]byte{9, 9, 9}),
		Pixels:      []byte{1, 2, 3},
	}))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := reader.Next(); !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("Next: err = %v, want ErrDigestMismatch", err)
	}
}

func TestReaderRejectsImpossibleSizes(t *testing.T) {
	tests := []struct {
		name   string
		record Record
	}{
		{"negative size lz4", Record{Width: 1, Height: 1, Compression: CompressionLZ4, Size: -1, Pixels: []byte{0}}},
		{"negative size zstd", Record{Width: 1, Height: 1, Compression: CompressionZstd, Size: -1, Pixels: []byte{0}}},
		{"size disagrees with dimensions", Record{Width: 2, Height: 2, Compression: CompressionLZ4, Size: 5, Pixels: []byte{0}}},
		{"negative dimensions", Record{Width: -2, Height: -2, Compression: CompressionNone, Size: 12, Pixels: make([]byte, 12)}},
		{"huge dimensions", Record{Width: 1 << 32, Height: 1 << 32, Compression: CompressionZstd, Size: 0, Pixels: []byte{0}}},
		{"over frame cap", Record{Width: 65536, Height: 65536, Compression: CompressionZstd, Size: 65536 * 65536 * 3, Pixels: []byte{0}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Summarize(encodeRawArchive(t, test.record))
			if !errors.Is(err, ErrCorruptRecord) {
				t.Fatalf("Summarize: err = %v, want ErrCorruptRecord", err)
			}
		})
	}
}

func TestAppendRejectsOversizedDimensions(t *testing.T) {
	writer, err := NewWriter(io.Discard, Header{})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	frame := &protocol.Frame{Width: protocol.MaxDimension + 1, Height: 1}
	if _, err := writer.Append(frame, protocol.State{}, 0); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("Append: err = %v, want ErrCorruptRecord", err)
	}
	if writer.Count() != 0 {
		t.Fatalf("Count = %d after rejected frame", writer.Count())
	}
}

func TestSummarize(t *testing.T) {
	frames := []*protocol.Frame{
		gradientFrame(16, 8, 0),
		gradientFrame(16, 8, 0),
		gradientFrame(16, 8, 1),
		gradientFrame(16, 8, 1),
		gradientFrame(16, 8, 0),
	}
	summary, err := Summarize(writeArchive(t, CompressionZstd, frames))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Records != 5 {
		t.Errorf("Records = %d, want 5", summary.Records)
	}
	if summary.DuplicateFrames != 2 {
		t.Errorf("DuplicateFrames = %d, want 2", summary.DuplicateFrames)
	}
	if summary.Width != 16 || summary.Height != 8 {
		t.Errorf("size = %dx%d", summary.Width, summary.Height)
	}
	if summary.RawBytes != 5*16*8*3 {
		t.Errorf("RawBytes = %d", summary.RawBytes)
	}
	if summary.StoredBytes >= summary.RawBytes || summary.Ratio() <= 1 {
		t.Errorf("StoredBytes = %d, Ratio = %v", summary.StoredBytes, summary.Ratio())
	}
	if summary.Compressed[CompressionZstd] != 5 {
		t.Errorf("Compressed = %v", summary.Compressed)
	}
	if summary.TotalReward != 0+1+2+3+4 {
		t.Errorf("TotalReward = %v, want 10", summary.TotalReward)
	}
	if summary.First.TotalExperience != 100 || summary.Last.TotalExperience != 500 {
		t.Errorf("First/Last = %d/%d", summary.First.TotalExperience, summary.Last.TotalExperience)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary, err := Summarize(writeArchive(t, CompressionLZ4, nil))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Records != 0 || summary.Ratio() != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}
