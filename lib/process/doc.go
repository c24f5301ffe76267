// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint error path shared by the
// rlbridge binaries: main calls run, and a returned error goes through
// [Fatal], which works whether or not the structured logger was ever
// configured.
package process
