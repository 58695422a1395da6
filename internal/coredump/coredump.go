// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package coredump lists the daemon and kernel core dumps kept on the switch.
package coredump

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// KernelName is shown in the daemon column for kernel cores.
const KernelName = "kernel"

// ErrScan is returned when a core directory exists but cannot be read.
var ErrScan = errors.New("could not read core dump directory")

var (
	daemonCore = regexp.MustCompile(`^core\.(.+)\.(\d+)\.(\d+)\.(\d{8})\.(\d{6})\.xz$`)
	kernelCore = regexp.MustCompile(`^vmcore\.(\d{8})\.(\d{6})\.tar\.gz$`)
)

const stampLayout = "20060102150405"

// Dump is one core file.
type Dump struct {
	Daemon   string // KernelName for kernel cores
	Instance string
	Signal   int // zero for kernel cores
	Time     time.Time
	Path     string
}

// Kernel reports whether d is a kernel core.
func (d Dump) Kernel() bool {
	return d.Daemon == KernelName && d.Signal == 0
}

// Reason describes the crash signal, e.g. "Segmentation fault (SIGSEGV)".
func (d Dump) Reason() string {
	if d.Signal == 0 {
		return ""
	}

	sig := unix.Signal(d.Signal)

	desc := sig.String()
	if desc != "" {
		desc = strings.ToUpper(desc[:1]) + desc[1:]
	}

	if name := unix.SignalName(sig); name != "" {
		return fmt.Sprintf("%s (%s)", desc, name)
	}

	return desc
}

// ParseDaemonCore parses core.<daemon>.<instance>.<signal>.<YYYYMMDD>.<HHMMSS>.xz.
func ParseDaemonCore(name string) (Dump, bool) {
	m := daemonCore.FindStringSubmatch(name)
	if m == nil {
		return Dump{}, false
	}

	sig, err := strconv.Atoi(m[3])
	if err != nil {
		return Dump{}, false
	}

	ts, err := time.ParseInLocation(stampLayout, m[4]+m[5], time.Local)
	if err != nil {
		return Dump{}, false
	}

	return Dump{Daemon: m[1], Instance: m[2], Signal: sig, Time: ts}, true
}

// ParseKernelCore parses vmcore.<YYYYMMDD>.<HHMMSS>.tar.gz.
func ParseKernelCore(name string) (Dump, bool) {
	m := kernelCore.FindStringSubmatch(name)
	if m == nil {
		return Dump{}, false
	}

	ts, err := time.ParseInLocation(stampLayout, m[1]+m[2], time.Local)
	if err != nil {
		return Dump{}, false
	}

	return Dump{Daemon: KernelName, Time: ts}, true
}

// Scan returns the daemon cores followed by the kernel cores found in the directories of
// cfg, each in file name order. A missing directory holds no cores.
func Scan(afs afero.Fs, cfg *catalog.CoreDumpConfig) ([]Dump, error) {
	daemons, err := scanDir(afs, cfg.DaemonPath, ParseDaemonCore)
	if err != nil {
		return nil, err
	}

	kernels, err := scanDir(afs, cfg.KernelPath, ParseKernelCore)
	if err != nil {
		return nil, err
	}

	return append(daemons, kernels...), nil
}

func scanDir(afs afero.Fs, dir string, parse func(string) (Dump, bool)) ([]Dump, error) {
	entries, err := afero.ReadDir(afs, dir)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %v", ErrScan, dir, err)
	}

	var dumps []Dump

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		d, ok := parse(e.Name())
		if !ok {
			continue
		}

		d.Path = dir + "/" + e.Name()
		dumps = append(dumps, d)
	}

	return dumps, nil
}

var rule = strings.Repeat("=", 86)

// Write prints the core dump table, or a single line when there are none.
func Write(w io.Writer, dumps []Dump) error {
	if len(dumps) == 0 {
		_, err := fmt.Fprintln(w, "No core dumps are present")
		return err //nolint:wrapcheck
	}

	var b strings.Builder

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%-20.20s| %-12.12s| %-30.30s| %-21.21s\n", "Daemon Name", "Instance ID", "Crash Reason", "Timestamp")
	fmt.Fprintln(&b, rule)

	for _, d := range dumps {
		fmt.Fprintf(&b, "%-20.20s  %-12.12s  %-30.30s %s\n",
			d.Daemon, d.Instance, d.Reason(), d.Time.Format(time.DateTime))
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total number of core dumps : %d\n", len(dumps))
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())

	return err //nolint:wrapcheck
}
