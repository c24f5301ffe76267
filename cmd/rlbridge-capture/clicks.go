// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bureau-foundation/rlbridge/capture"
)

// parseClicks parses STEP:X:Y specs and orders them by step. Specs for
// the same step keep their command-line order.
func parseClicks(specs []string) ([]capture.Click, error) {
	clicks := make([]capture.Click, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --click %q: want STEP:X:Y", spec)
		}
		var values [3]int
		for i, part := range parts {
			value, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || value < 0 {
				return nil, fmt.Errorf("invalid --click %q: %q is not a non-negative integer", spec, part)
			}
			values[i] = value
		}
		clicks = append(clicks, capture.Click{Step: values[0], X: values[1], Y: values[2]})
	}
	slices.SortStableFunc(clicks, func(a, b capture.Click) int {
		return cmp.Compare(a.Step, b.Step)
	})
	return clicks, nil
}
