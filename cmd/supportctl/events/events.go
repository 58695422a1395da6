// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package events is the events subcommand.
package events

import (
	"context"

	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/cmdstate"
	"github.com/matt-FFFFFF/supportctl/internal/eventlog"
	"github.com/urfave/cli/v3"
)

const (
	eventIDFlag    = "event-id"
	severityFlag   = "severity"
	categoryFlag   = "category"
	reverseFlag    = "reverse"
	journalctlFlag = "journalctl"
	loggerFlag     = "logger"
	identFlag      = "identifier"
)

// NewCommand returns the events command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Show the event log, list the event catalog or write an event",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the events logged in the system journal",
				Flags: []cli.Flag{
					&cli.IntSliceFlag{
						Name:    eventIDFlag,
						Aliases: []string{"id"},
						Usage:   "Only show events with this ID. Specify multiple times for several IDs.",
					},
					&cli.StringFlag{
						Name:  severityFlag,
						Usage: "Only show events at or above this severity: emer, alert, crit, err, warn, notice, info or debug",
					},
					&cli.StringFlag{
						Name:  categoryFlag,
						Usage: "Only show events of this category",
					},
					&cli.BoolFlag{
						Name:        reverseFlag,
						Aliases:     []string{"r"},
						Usage:       "Show the newest events first",
						Value:       false,
						DefaultText: "false",
					},
					&cli.StringFlag{
						Name:      journalctlFlag,
						Usage:     "Path of the journalctl binary",
						Value:     eventlog.DefaultJournalctl,
						Sources:   cli.EnvVars("SUPPORTCTL_JOURNALCTL"),
						TakesFile: true,
					},
				},
				Action: showAction,
			},
			{
				Name:  "list",
				Usage: "List the event definitions of the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  categoryFlag,
						Usage: "Only list events of this category",
					},
				},
				Action: listAction,
			},
			{
				Name:      "log",
				Usage:     "Write a catalog event to the system journal",
				ArgsUsage: "EVENT [key=value...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      loggerFlag,
						Usage:     "Path of the journal writer, which must accept --journald=FILE",
						Value:     eventlog.DefaultLogger,
						Sources:   cli.EnvVars("SUPPORTCTL_LOGGER"),
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:    identFlag,
						Aliases: []string{"t"},
						Usage:   "Syslog identifier of the event",
						Value:   eventlog.DefaultIdentifier,
					},
				},
				Action: logAction,
			},
		},
	}
}

func showAction(ctx context.Context, cmd *cli.Command) error {
	f := eventlog.Filter{
		IDs:      cmd.IntSlice(eventIDFlag),
		Category: cmd.String(categoryFlag),
		Reverse:  cmd.Bool(reverseFlag),
	}

	if s := cmd.String(severityFlag); s != "" {
		p, err := eventlog.ParseSeverity(s)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		f.MaxPriority = &p
	}

	j := &eventlog.Journal{Path: cmd.String(journalctlFlag)}

	entries, err := j.Query(ctx, f)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := eventlog.Show(cmd.Root().Writer, entries); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cat, err := st.Catalog(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ec, err := cat.Events()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := eventlog.List(cmd.Root().Writer, ec, cmd.String(categoryFlag)); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func logAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return cli.Exit("an event name is required", 1)
	}

	kv, err := eventlog.ParseKeyValues(cmd.Args().Tail())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cat, err := st.Catalog(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ec, err := cat.Events()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	e := &eventlog.Emitter{
		Path:       cmd.String(loggerFlag),
		Identifier: cmd.String(identFlag),
	}

	if err := e.Log(ctx, ec, cmd.Args().First(), kv); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}
