// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 keyed hash of a frame's raw R,G,B bytes.
type Digest [32]byte

// frameDomainKey separates frame digests from any other BLAKE3 use of
// the same bytes. The value is the ASCII domain name, zero-padded.
var frameDomainKey = [32]byte{
	'r', 'l', 'b', 'r', 'i', 'd', 'g', 'e', '.', 'c', 'a', 'p', 't', 'u', 'r', 'e',
	'.', 'f', 'r', 'a', 'm', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// FrameDigest hashes raw pixels. Digests are always computed before
// compression, so equal frames have equal digests whatever codec
// stored them.
func FrameDigest(pixels []byte) Digest {
	hasher, err := blake3.NewKeyed(frameDomainKey[:])
	if err != nil {
		// Only a wrong key length fails, and the key is fixed-size.
		panic("capture: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(pixels)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// String returns the lowercase hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, for display.
func (d Digest) Short() string {
	return d.String()[:12]
}
