// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors so that normal peer
// disconnects are not reported as failures.
package netutil
