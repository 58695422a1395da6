// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package vlog is the vlog subcommand.
package vlog

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/cmdstate"
	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/vlog"
	"github.com/urfave/cli/v3"
)

const (
	kindFeature = "feature"
	kindDaemon  = "daemon"
)

var errFeatureNotPresent = errors.New("Feature not present") //nolint:staticcheck

// NewCommand returns the vlog command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "vlog",
		Usage: "Show or change the log levels of the daemons",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the features that support vlog",
				Action: listAction,
			},
			{
				Name:      "show",
				Usage:     "Show the syslog and file log levels of daemons",
				ArgsUsage: "[feature|daemon NAME]",
				Action:    showAction,
			},
			{
				Name:      "set",
				Usage:     "Change the log level of the daemons of a feature, or of one daemon",
				ArgsUsage: "feature|daemon NAME syslog|file|all emer|err|warn|info|dbg|off",
				Action:    setAction,
			},
		},
	}
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	m, err := featureMapping(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := vlog.List(cmd.Root().Writer, m); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func showAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args()
	if args.Len() != 0 && args.Len() != 2 {
		return cli.Exit("Usage: supportctl vlog show "+cmd.ArgsUsage, 1)
	}

	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var (
		items  []runbatch.WorkItem[vlog.Target]
		layout = vlog.LayoutFeatures
	)

	if args.Len() == 0 {
		m, err := featureMapping(ctx)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		items = vlog.FeatureTargets(m.Features...)
	} else {
		items, err = targets(ctx, args.Get(0), args.Get(1))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		if args.Get(0) == kindDaemon {
			layout = vlog.LayoutDaemon
		}
	}

	w := cmd.Root().Writer
	if err := layout.WriteHeader(w); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	c := vlog.NewClient(st.RunDir)
	c.Fs = st.Fs

	return finish(cmd, cmdstate.Collect(ctx, st, w, vlog.Collection, vlog.Phrases, items, c.ShowAction(layout)))
}

func setAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args()
	if args.Len() != 4 {
		return cli.Exit("Usage: supportctl vlog set "+cmd.ArgsUsage, 1)
	}

	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	setting, err := vlog.ParseSetting(args.Get(2), args.Get(3))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	items, err := targets(ctx, args.Get(0), args.Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	c := vlog.NewClient(st.RunDir)
	c.Fs = st.Fs

	return finish(cmd, cmdstate.Collect(ctx, st, cmd.Root().Writer, vlog.Collection, vlog.Phrases, items, c.SetAction(setting)))
}

// finish prints the summary of a failed run. A successful vlog run prints nothing more.
func finish(cmd *cli.Command, report *runbatch.Report) error {
	if report.Success() {
		return nil
	}

	report.WriteSummary(cmd.Root().Writer) //nolint:errcheck

	return cli.Exit("", 1) // the summary line is the message
}

func targets(ctx context.Context, kind, name string) ([]runbatch.WorkItem[vlog.Target], error) {
	switch kind {
	case kindDaemon:
		return vlog.DaemonTarget(name), nil
	case kindFeature:
		m, err := featureMapping(ctx)
		if err != nil {
			return nil, err
		}

		f, err := m.Lookup(name)
		if err != nil {
			return nil, errFeatureNotPresent
		}

		return vlog.FeatureTargets(f), nil
	default:
		return nil, errors.New("expected feature or daemon, got " + kind) //nolint:err113
	}
}

func featureMapping(ctx context.Context) (*catalog.FeatureMapping, error) {
	st, err := cmdstate.From(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	cat, err := st.Catalog(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return cat.FeatureMapping() //nolint:wrapcheck
}
