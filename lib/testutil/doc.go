// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for rlbridge packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so a broken test fails instead of hanging. They are the
// only place tests use wall-clock timeouts; everything under test takes
// a lib/clock.Clock instead.
//
// [Listen] binds a loopback TCP listener on an ephemeral port and
// closes it when the test completes.
//
// All helpers call t.Fatalf on failure.
package testutil
