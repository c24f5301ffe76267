// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type sampleRecord struct {
	Sequence uint64 `cbor:"sequence"`
	Width    int    `cbor:"width"`
	Pixels   []byte `cbor:"pixels"`
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{Sequence: 7, Width: 2, Pixels: []byte{1, 2, 3, 4, 5, 6}}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 5 {
		again, err := Marshal(record)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("non-deterministic encoding:\n  first: %x\n  again: %x", first, again)
		}
	}
}

func TestStreamSequence(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for i := range 3 {
		if err := encoder.Encode(sampleRecord{Sequence: uint64(i), Width: i}); err != nil {
			t.Fatalf("Encode %d: %v", i, err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i := range 3 {
		var record sampleRecord
		if err := decoder.Decode(&record); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if record.Sequence != uint64(i) {
			t.Errorf("record %d: sequence = %d", i, record.Sequence)
		}
	}

	var extra sampleRecord
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		t.Fatalf("Decode past end = %v, want io.EOF", err)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	type newer struct {
		Sequence uint64 `cbor:"sequence"`
		Extra    string `cbor:"extra"`
	}
	data, err := Marshal(newer{Sequence: 3, Extra: "added later"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var older sampleRecord
	if err := Unmarshal(data, &older); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if older.Sequence != 3 {
		t.Errorf("Sequence = %d, want 3", older.Sequence)
	}
}
