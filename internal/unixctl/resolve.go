// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package unixctl

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// DefaultRunDir is where daemons write their pid files and control sockets.
const DefaultRunDir = "/var/run/openvswitch"

var (
	// ErrPidFile is returned when a daemon's pid file cannot be read.
	ErrPidFile = errors.New("could not read pid file")
	// ErrInvalidPid is returned when a pid file does not hold a positive integer.
	ErrInvalidPid = errors.New("invalid pid")
)

// FsFactory returns the filesystem used to read pid files. Tests replace it.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Resolve returns the control socket path for target.
// An absolute target is already a socket path. Otherwise target is a daemon name and
// the socket is <rundir>/<target>.<pid>.ctl, with the pid read from <rundir>/<target>.pid.
func Resolve(fs afero.Fs, rundir, target string) (string, error) {
	if filepath.IsAbs(target) {
		return target, nil
	}

	if rundir == "" {
		rundir = DefaultRunDir
	}

	pidPath := filepath.Join(rundir, target+".pid")

	b, err := afero.ReadFile(fs, pidPath)
	if err != nil {
		return "", errors.Join(ErrPidFile, err)
	}

	raw := strings.TrimSpace(string(b))

	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		return "", fmt.Errorf("%w: %q in %s", ErrInvalidPid, raw, pidPath)
	}

	return filepath.Join(rundir, fmt.Sprintf("%s.%d.ctl", target, pid)), nil
}
