// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/rlbridge/capture"
	"github.com/bureau-foundation/rlbridge/protocol"
)

func TestWriteSummaryPlain(t *testing.T) {
	summary := capture.Summary{
		Header: capture.Header{
			Format:    capture.Format,
			RunID:     "run-7",
			Address:   "127.0.0.1:5656",
			CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		},
		Records:         3,
		DuplicateFrames: 1,
		Width:           765,
		Height:          503,
		RawBytes:        300,
		StoredBytes:     100,
		Compressed:      map[capture.Compression]int{capture.CompressionZstd: 2, capture.CompressionNone: 1},
		TotalReward:     12.5,
		First:           protocol.State{TotalExperience: 10, TotalLevels: 21},
		Last:            protocol.State{TotalExperience: 260, TotalLevels: 23},
	}

	var output bytes.Buffer
	writeSummary(&output, "run.rlcap", summary, false)
	text := output.String()

	for _, want := range []string{
		"run.rlcap\n",
		"records     3 (1 duplicate frames)",
		"frame       765x503",
		"ratio 3.00",
		"codecs      none=1 zstd=2",
		"experience  10 -> 260",
		"levels      21 -> 23",
		"reward      12.50",
		"created     2026-03-04 05:06:07Z",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunInspectRequiresFile(t *testing.T) {
	if err := runInspect(nil); err == nil {
		t.Fatal("runInspect with no arguments succeeded")
	}
	if err := runInspect([]string{"/nonexistent/run.rlcap"}); err == nil {
		t.Fatal("runInspect on a missing file succeeded")
	}
}
