// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"strconv"
	"strings"
)

// Command is one parsed control line.
type Command struct {
	// Name is the upper-cased command token.
	Name string

	// Args are the remaining whitespace-separated tokens, unparsed.
	Args []string
}

// ParseCommand splits line into a command. It returns false for a
// blank line, which the session skips without responding.
func ParseCommand(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{
		Name: strings.ToUpper(fields[0]),
		Args: fields[1:],
	}, true
}

// HasArgs reports whether at least n arguments are present.
func (c Command) HasArgs(n int) bool {
	return len(c.Args) >= n
}

// Int returns argument i as a base-10 integer. A missing or malformed
// argument, including one that overflows int32, is 0: bad coordinates
// degrade to a harmless pointer position instead of ending the
// session.
func (c Command) Int(i int) int {
	if i < 0 || i >= len(c.Args) {
		return 0
	}
	value, err := strconv.ParseInt(c.Args[i], 10, 32)
	if err != nil {
		return 0
	}
	return int(value)
}
