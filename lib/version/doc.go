// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build information for the rlbridge binaries.
//
// [Version], [GitCommit], [GitDirty], and [BuildTime] are injected with
// -ldflags -X and default to development values otherwise:
//
//	go build -ldflags "-X github.com/bureau-foundation/rlbridge/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// [Info] formats them for --version; [Print] writes the full line for a
// named binary.
package version
