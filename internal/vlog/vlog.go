// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package vlog reads and changes the log levels of running daemons.
package vlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/unixctl"
	"github.com/spf13/afero"
)

const (
	methodList = "vlog/list"
	methodSet  = "vlog/set"
)

// Collection names vlog runs in reports, progress events and metrics.
const Collection = "vlog"

// Levels are the syslog and file levels of a daemon.
type Levels struct {
	Syslog string
	File   string
}

// ParseList reads the levels of the first module row of a vlog/list reply:
//
//	                 console    syslog    file
//	                 -------    ------    ------
//	backtrace          OFF        ERR       INFO
func ParseList(reply string) (Levels, error) {
	var cols []string

	sc := bufio.NewScanner(strings.NewReader(reply))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())

		switch {
		case len(fields) == 0:
			continue
		case cols == nil:
			cols = fields
		case strings.HasPrefix(fields[0], "-"):
			continue
		case len(fields) == len(cols)+1:
			syslog := slices.Index(cols, "syslog")
			file := slices.Index(cols, "file")

			if syslog < 0 || file < 0 {
				return Levels{}, fmt.Errorf("%w: header %q", ErrMalformedReply, strings.Join(cols, " "))
			}

			return Levels{Syslog: fields[syslog+1], File: fields[file+1]}, nil
		}
	}

	return Levels{}, ErrMalformedReply
}

// Target is one daemon to query or configure.
type Target struct {
	Feature string // empty when the daemon was named directly
	Daemon  string
	First   bool // first daemon of its feature
}

// FeatureTargets returns one target per daemon of each feature.
func FeatureTargets(features ...catalog.Feature) []runbatch.WorkItem[Target] {
	var items []runbatch.WorkItem[Target]

	for _, f := range features {
		for i, d := range f.Daemons {
			items = append(items, runbatch.WorkItem[Target]{
				Name:  d,
				Value: Target{Feature: f.Name, Daemon: d, First: i == 0},
			})
		}
	}

	return items
}

// DaemonTarget returns the single target for a daemon named directly.
func DaemonTarget(daemon string) []runbatch.WorkItem[Target] {
	return []runbatch.WorkItem[Target]{{
		Name:  daemon,
		Value: Target{Daemon: daemon, First: true},
	}}
}

// Phrases is the report wording of a vlog run.
var Phrases = runbatch.Phrases{
	Action:         "Vlog",
	Success:        "Vlog completed successfully",
	ItemNoun:       "daemon",
	ItemNounPlural: "daemons",
}

// Client talks to daemons found under RunDir.
type Client struct {
	RunDir string
	Fs     afero.Fs
	Dial   []unixctl.DialOption
}

// NewClient returns a Client reading pid files through unixctl.FsFactory.
func NewClient(rundir string) *Client {
	return &Client{RunDir: rundir, Fs: unixctl.FsFactory()}
}

func (c *Client) call(ctx context.Context, t Target, out io.Writer, method string, params ...string) (string, error) {
	reply, err := unixctl.Call(ctx, c.Fs, c.RunDir, t.Daemon, method, params, c.Dial...)
	if err != nil {
		ctxlog.Error(ctx, "vlog request failed", "daemon", t.Daemon, "method", method, "error", err)

		if errors.Is(err, unixctl.ErrConnect) {
			fmt.Fprintf(out, "Not able to communicate with daemon %s\n", t.Daemon) //nolint:errcheck
		}

		return "", err
	}

	return reply, nil
}

// ShowAction returns an action that queries the levels of a target and writes one row.
func (c *Client) ShowAction(layout Layout) runbatch.Action[Target] {
	return func(ctx context.Context, item runbatch.WorkItem[Target], out io.Writer) error {
		t := item.Value

		reply, err := c.call(ctx, t, out, methodList)
		if err != nil {
			return err
		}

		lv, err := ParseList(reply)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Daemon, err)
		}

		_, err = io.WriteString(out, layout.row(t, lv))

		return err //nolint:wrapcheck
	}
}

// SetAction returns an action that applies s to a target.
func (c *Client) SetAction(s Setting) runbatch.Action[Target] {
	return func(ctx context.Context, item runbatch.WorkItem[Target], out io.Writer) error {
		_, err := c.call(ctx, item.Value, out, methodSet, s.String())
		if err == nil {
			ctxlog.Info(ctx, "log level changed", "daemon", item.Value.Daemon, "setting", s.String())
		}

		return err
	}
}
