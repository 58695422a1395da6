// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package diagdump asks the daemons of a feature for their diagnostic dump.
package diagdump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/unixctl"
	"github.com/spf13/afero"
)

// Collection names diag-dump runs in reports, progress events and metrics.
const Collection = "diag-dump"

// DefaultDumpDir holds dump files named on the command line.
const DefaultDumpDir = "/tmp/ops-diag"

// Level selects how much a daemon dumps.
type Level string

const (
	// LevelBasic is printed to the terminal unless a file is given.
	LevelBasic Level = "basic"
	// LevelAdvanced always goes to a file.
	LevelAdvanced Level = "advanced"
)

var (
	// ErrInvalidLevel is returned for a level other than basic or advanced.
	ErrInvalidLevel = errors.New("invalid diagnostic dump level")
	// ErrFileRequired is returned for an advanced dump without a file.
	ErrFileRequired = errors.New("advanced diagnostic dump requires a file")
	// ErrInvalidFileName is returned when the file name leaves the dump directory.
	ErrInvalidFileName = errors.New("file name must be relative to the dump directory")
	// ErrOpenFile is returned when the dump file cannot be opened.
	ErrOpenFile = errors.New("failed to open dump file")
)

// ParseLevel accepts basic or advanced.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(s)); l {
	case LevelBasic, LevelAdvanced:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// Method is the control socket method for the level.
func (l Level) Method() string {
	return "dumpdiag" + string(l)
}

// Phrases is the report wording for a dump of feature.
func Phrases(feature string) runbatch.Phrases {
	return runbatch.Phrases{
		Action:         "Diagnostic dump",
		Success:        "Diagnostic dump captured successfully for feature " + feature,
		ItemNoun:       "daemon",
		ItemNounPlural: "daemons",
	}
}

// List writes the features that support diagnostic dumps.
func List(w io.Writer, m *catalog.FeatureMapping) error {
	if _, err := fmt.Fprintln(w, "Diagnostic Dump Supported Features List"); err != nil {
		return err //nolint:wrapcheck
	}

	for _, f := range m.Features {
		if _, err := fmt.Fprintf(w, "%s\t\t\t%s\n", f.Name, f.Desc); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}

// Request is the payload of one work item.
type Request struct {
	Feature string
	Daemon  string
	Level   Level
}

// Items returns one item per daemon of feature, in catalog order.
func Items(feature catalog.Feature, level Level) []runbatch.WorkItem[Request] {
	items := make([]runbatch.WorkItem[Request], 0, len(feature.Daemons))

	for _, d := range feature.Daemons {
		items = append(items, runbatch.WorkItem[Request]{
			Name:  d,
			Value: Request{Feature: feature.Name, Daemon: d, Level: level},
		})
	}

	return items
}

// Collector sends dump requests to daemons found under RunDir.
type Collector struct {
	RunDir string
	Fs     afero.Fs
	Dial   []unixctl.DialOption
}

// NewCollector returns a Collector reading pid files through unixctl.FsFactory.
func NewCollector(rundir string) *Collector {
	return &Collector{
		RunDir: rundir,
		Fs:     unixctl.FsFactory(),
	}
}

// Action returns the work item action. With file nil the basic dump is printed to the
// item output; otherwise the raw result is appended to file.
func (c *Collector) Action(file io.Writer) runbatch.Action[Request] {
	return func(ctx context.Context, item runbatch.WorkItem[Request], out io.Writer) error {
		req := item.Value
		logger := ctxlog.Logger(ctx).With("daemon", req.Daemon, "feature", req.Feature)

		result, err := unixctl.Call(ctx, c.Fs, c.RunDir, req.Daemon, req.Level.Method(),
			[]string{string(req.Level), req.Feature}, c.Dial...)

		var remote *unixctl.RemoteError

		switch {
		case errors.As(err, &remote):
			logger.Error("daemon returned error", "error", remote.Message)
			return err
		case errors.Is(err, unixctl.ErrConnect):
			logger.Error("connect failed", "error", err)
			fmt.Fprintf(out, "failed to connect daemon %s\n", req.Daemon) //nolint:errcheck

			return err
		case err != nil:
			logger.Error("transaction error", "error", err)
			return err
		}

		if result == "" {
			return nil
		}

		if file == nil && req.Level == LevelBasic {
			_, err = fmt.Fprintf(out, "Diagnostic dump for daemon %s\n%s\n", req.Daemon, result)
			return err //nolint:wrapcheck
		}

		if file == nil {
			return ErrFileRequired
		}

		_, err = fmt.Fprintf(file, "%s\n", result)

		return err //nolint:wrapcheck
	}
}

// FilePath validates name and joins it to dumpDir.
func FilePath(dumpDir, name string) (string, error) {
	if dumpDir == "" {
		dumpDir = DefaultDumpDir
	}

	clean := filepath.Clean(name)
	if name == "" || filepath.IsAbs(name) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}

	return filepath.Join(dumpDir, clean), nil
}

// OpenFile opens name below dumpDir for appending, creating the directory if needed.
func OpenFile(fs afero.Fs, dumpDir, name string) (afero.File, error) {
	path, err := FilePath(dumpDir, name)
	if err != nil {
		return nil, err
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Join(ErrOpenFile, err)
	}

	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Join(ErrOpenFile, err)
	}

	return f, nil
}
