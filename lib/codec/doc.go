// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR configuration for rlbridge's on-disk
// formats. The wire protocol itself is plain text; CBOR is used where
// structured binary data is persisted, currently the capture archive.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same record always produces the same bytes. Types serialized here
// carry `cbor` struct tags.
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
package codec
