// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// rlbridge-sim hosts the synthetic game from package sim behind a
// bridge, so the control protocol can be exercised end to end without
// the real client.
//
// Configuration comes from --config, else $RLBRIDGE_CONFIG, else
// built-in defaults; flags override individual fields. If the control
// port cannot be bound the error is logged and the simulation keeps
// running. SIGINT or SIGTERM stops the render loop, closes every
// control connection, and exits.
package main
