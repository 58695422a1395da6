// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package vlog

import (
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
)

// Layout selects the table printed by a show.
type Layout int

const (
	// LayoutFeatures lists feature, daemon and levels. Continuation rows of a feature
	// leave the feature column blank.
	LayoutFeatures Layout = iota
	// LayoutDaemon lists a single daemon named directly.
	LayoutDaemon
)

// WriteHeader writes the table header for the layout.
func (l Layout) WriteHeader(w io.Writer) error {
	var err error

	switch l {
	case LayoutDaemon:
		_, err = fmt.Fprintf(w, "%s\nDaemon              Syslog     File\n%s\n", rule(38), rule(38))
	default:
		_, err = fmt.Fprintf(w, "%s\nFeature         Daemon          Syslog     File\n%s\n", rule(49), rule(49))
	}

	return err //nolint:wrapcheck
}

func (l Layout) row(t Target, lv Levels) string {
	if l == LayoutDaemon {
		return fmt.Sprintf("%-19.19s %-10.10s %s\n", t.Daemon, lv.Syslog, lv.File)
	}

	feature := ""
	if t.First {
		feature = t.Feature
	}

	return fmt.Sprintf("%-15.15s %-15.15s %-10.10s %s\n", feature, t.Daemon, lv.Syslog, lv.File)
}

func rule(n int) string {
	return strings.Repeat("=", n)
}

// List writes the features that support log level changes.
func List(w io.Writer, m *catalog.FeatureMapping) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nFeatures          Description\n%s\n", rule(45), rule(45))

	for _, f := range m.Features {
		fmt.Fprintf(&b, "%-17.17s %.50s\n", f.Name, f.Desc)
	}

	_, err := io.WriteString(w, b.String())

	return err //nolint:wrapcheck
}
