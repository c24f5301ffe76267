// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads rlbridge configuration.
//
// Configuration comes from a single file named by the --config flag
// ([LoadFile]) or the RLBRIDGE_CONFIG environment variable ([Load]).
// There is no search path and no per-field environment override; what
// is in the file (on top of [Default]) is what runs.
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas; anything else is YAML. ${VAR} and ${VAR:-default}
// are expanded in path-valued fields after loading.
//
// This package depends on no other rlbridge packages.
package config
