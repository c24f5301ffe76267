// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bureau-foundation/rlbridge/lib/codec"
	"github.com/bureau-foundation/rlbridge/protocol"
)

// Format identifies the archive layout. Readers reject other values.
const Format = "rlbridge-capture/1"

var (
	// ErrUnknownFormat is returned by NewReader for a stream whose
	// header is not a capture header of this version.
	ErrUnknownFormat = errors.New("capture: unknown archive format")

	// ErrDigestMismatch is returned by Reader.Next when a record's
	// decompressed pixels do not hash to its stored digest.
	ErrDigestMismatch = errors.New("capture: frame digest mismatch")

	// ErrCorruptRecord is returned by Reader.Next when a record's
	// dimensions or size are impossible.
	ErrCorruptRecord = errors.New("capture: corrupt record")
)

// Header is the first item of an archive.
type Header struct {
	Format string `cbor:"format"`

	// RunID identifies one recording session.
	RunID string `cbor:"run_id"`

	// Address is the bridge the frames were recorded from.
	Address string `cbor:"address"`

	// Compression is the codec the writer tried for each record.
	// Individual records may fall back to CompressionNone.
	Compression Compression `cbor:"compression"`

	// CreatedAt is stored with one-second precision.
	CreatedAt time.Time `cbor:"created_at"`
}

// Record is one STEP observation.
type Record struct {
	Sequence    uint64      `cbor:"sequence"`
	Width       int         `cbor:"width"`
	Height      int         `cbor:"height"`
	Compression Compression `cbor:"compression"`

	// Size is the raw payload length, width*height*3.
	Size int `cbor:"size"`

	// Digest is FrameDigest of the raw payload.
	Digest Digest `cbor:"digest"`

	// Pixels is the payload as stored in the archive. Reader.Next
	// replaces it with the decompressed R,G,B bytes.
	Pixels []byte `cbor:"pixels"`

	State  protocol.State `cbor:"state"`
	Reward float64        `cbor:"reward"`

	// Stored is the on-disk payload length, set by Reader.Next.
	Stored int `cbor:"-"`
}

// Writer appends records to an archive stream.
type Writer struct {
	encoder     *codec.Encoder
	compression Compression
	sequence    uint64
}

// NewWriter writes header to w and returns a Writer for the records
// that follow. An empty header.Format is filled in.
func NewWriter(w io.Writer, header Header) (*Writer, error) {
	if header.Format == "" {
		header.Format = Format
	}
	if header.Format != Format {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, header.Format)
	}
	header.CreatedAt = header.CreatedAt.Truncate(time.Second)

	encoder := codec.NewEncoder(w)
	if err := encoder.Encode(header); err != nil {
		return nil, fmt.Errorf("capture: writing header: %w", err)
	}
	return &Writer{encoder: encoder, compression: header.Compression}, nil
}

// Append compresses and writes one frame with the state observed
// after it. It returns the frame's digest.
func (w *Writer) Append(frame *protocol.Frame, state protocol.State, reward float64) (Digest, error) {
	record := Record{
		Sequence: w.sequence,
		Width:    frame.Width,
		Height:   frame.Height,
		Size:     frame.Width * frame.Height * protocol.Channels,
		State:    state,
		Reward:   reward,
	}
	if err := record.checkSize(); err != nil {
		return Digest{}, err
	}
	if len(frame.Pixels) != record.Size {
		return Digest{}, fmt.Errorf("capture: %dx%d frame has %d bytes, want %d",
			frame.Width, frame.Height, len(frame.Pixels), record.Size)
	}

	var err error
	record.Digest = FrameDigest(frame.Pixels)
	record.Pixels, record.Compression, err = compress(frame.Pixels, w.compression)
	if err != nil {
		return Digest{}, err
	}
	if err := w.encoder.Encode(record); err != nil {
		return Digest{}, fmt.Errorf("capture: writing record %d: %w", w.sequence, err)
	}
	w.sequence++
	return record.Digest, nil
}

// Count returns the number of records written.
func (w *Writer) Count() uint64 {
	return w.sequence
}

// Reader reads an archive stream.
type Reader struct {
	decoder *codec.Decoder
	header  Header
}

// NewReader reads and checks the archive header.
func NewReader(r io.Reader) (*Reader, error) {
	decoder := codec.NewDecoder(r)
	var header Header
	if err := decoder.Decode(&header); err != nil {
		return nil, fmt.Errorf("capture: reading header: %w", err)
	}
	if header.Format != Format {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, header.Format)
	}
	return &Reader{decoder: decoder, header: header}, nil
}

// Header returns the archive header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next record with its pixels decompressed and
// verified. It returns io.EOF after the last record.
func (r *Reader) Next() (Record, error) {
	var record Record
	if err := r.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture: reading record: %w", err)
	}

	if err := record.checkSize(); err != nil {
		return Record{}, err
	}
	record.Stored = len(record.Pixels)
	pixels, err := decompress(record.Pixels, record.Compression, record.Size)
	if err != nil {
		return Record{}, fmt.Errorf("capture: record %d: %w", record.Sequence, err)
	}
	if FrameDigest(pixels) != record.Digest {
		return Record{}, fmt.Errorf("%w in record %d", ErrDigestMismatch, record.Sequence)
	}
	record.Pixels = pixels
	return record, nil
}

// checkSize rejects dimensions a decoder must not allocate for.
func (record *Record) checkSize() error {
	if record.Width < 0 || record.Height < 0 ||
		record.Width > protocol.MaxDimension || record.Height > protocol.MaxDimension {
		return fmt.Errorf("%w: record %d has dimensions %dx%d", ErrCorruptRecord, record.Sequence, record.Width, record.Height)
	}
	if record.Size != record.Width*record.Height*protocol.Channels {
		return fmt.Errorf("%w: record %d size %d does not match %dx%d", ErrCorruptRecord,
			record.Sequence, record.Size, record.Width, record.Height)
	}
	if record.Size > protocol.MaxFrameBytes {
		return fmt.Errorf("%w: record %d size %d exceeds %d", ErrCorruptRecord,
			record.Sequence, record.Size, protocol.MaxFrameBytes)
	}
	return nil
}
