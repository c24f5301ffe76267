// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// rlbridge-capture records trajectories from a running bridge and
// inspects the resulting archives.
//
// "record" dials the control socket, waits for READY, and writes one
// archive record per STEP. "inspect" decodes an archive, verifies
// every frame digest, and prints a summary.
package main
