// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package vlog

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidDestination is returned for a destination other than syslog, file or all.
	ErrInvalidDestination = errors.New("Invalid destination") //nolint:staticcheck
	// ErrInvalidLevel is returned for an unknown log level.
	ErrInvalidLevel = errors.New("Invalid log level") //nolint:staticcheck
	// ErrMalformedReply is returned when a vlog/list reply has no module rows.
	ErrMalformedReply = errors.New("malformed vlog/list reply")
)

var (
	destinations = []string{"syslog", "file", "all"}
	levels       = []string{"emer", "err", "warn", "info", "dbg", "off"}
)

// match returns the first candidate that s abbreviates, ignoring case.
func match(s string, candidates []string) (string, bool) {
	s = strings.ToLower(s)
	if s == "" {
		return "", false
	}

	for _, c := range candidates {
		if strings.HasPrefix(c, s) {
			return c, true
		}
	}

	return "", false
}

// Setting is a validated vlog/set argument.
type Setting struct {
	Destination string // syslog, file or any
	Level       string
}

// ParseSetting validates destination and level. Both may be abbreviated, and the all
// destination is sent to the daemon as any.
func ParseSetting(destination, level string) (Setting, error) {
	d, ok := match(destination, destinations)
	if !ok {
		return Setting{}, ErrInvalidDestination
	}

	if d == "all" {
		d = "any"
	}

	l, ok := match(level, levels)
	if !ok {
		return Setting{}, ErrInvalidLevel
	}

	return Setting{Destination: d, Level: l}, nil
}

// String returns the vlog/set argument, e.g. syslog:dbg.
func (s Setting) String() string {
	return s.Destination + ":" + s.Level
}
