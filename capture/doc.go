// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture records trajectories from a bridge into archives and
// reads them back.
//
// An archive is a CBOR sequence: one [Header] followed by one [Record]
// per STEP. Each record carries the frame's dimensions, its pixels
// compressed with LZ4 or zstd (or stored raw when compression does not
// help), a BLAKE3 digest of the raw pixels, the STATE read after the
// step, and the shaped reward relative to the previous state. [Reader]
// decompresses and verifies every record; [Summarize] folds an archive
// into totals, counting consecutive identical frames as duplicates.
//
// [Recorder] drives a live connection: it waits for READY, issues
// scripted clicks, paces STEPs with a token bucket, and retries
// while the bridge reports no headless buffer.
package capture
