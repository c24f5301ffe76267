// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"net"
	"testing"
)

// Listen binds 127.0.0.1:0 and registers cleanup to close the
// listener. Use it for tests that need a port nobody is listening on
// after the listener is closed, or a peer that accepts but never
// answers.
func Listen(t *testing.T) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening on loopback: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	return listener
}
