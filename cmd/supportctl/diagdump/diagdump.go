// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package diagdump is the diag-dump subcommand.
package diagdump

import (
	"context"
	"fmt"
	"io"

	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/cmdstate"
	dump "github.com/matt-FFFFFF/supportctl/internal/diagdump"
	"github.com/urfave/cli/v3"
)

// NewCommand returns the diag-dump command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "diag-dump",
		Usage:     "Capture diagnostic dumps from the daemons of a feature",
		ArgsUsage: "FEATURE basic|advanced [FILE]",
		Description: `Ask every daemon of FEATURE for a diagnostic dump over its control socket.
A basic dump is printed to the terminal unless FILE is given. An advanced dump needs FILE.
FILE is relative to the dump directory and is appended to.`,
		Action: actionFunc,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the features that support diagnostic dumps",
				Action: listAction,
			},
		},
	}
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

	m, err := cat.DiagFeatures()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := dump.List(cmd.Root().Writer, m); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer

	args := cmd.Args()
	if args.Len() < 2 || args.Len() > 3 {
		return cli.Exit("Usage: supportctl diag-dump "+cmd.ArgsUsage, 1)
	}

	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	level, err := dump.ParseLevel(args.Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cat, err := st.Catalog(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	m, err := cat.DiagFeatures()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	name := args.Get(0)

	feature, err := m.Lookup(name)
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s feature is not present", name), 1)
	}

	var file io.Writer

	if args.Len() == 3 {
		f, err := dump.OpenFile(st.Fs, st.DumpDir, args.Get(2))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		defer f.Close() //nolint:errcheck

		file = f
	} else if level == dump.LevelAdvanced {
		return cli.Exit(dump.ErrFileRequired.Error(), 1)
	}

	c := dump.NewCollector(st.RunDir)
	c.Fs = st.Fs

	report := cmdstate.Collect(ctx, st, w, dump.Collection, dump.Phrases(feature.Name),
		dump.Items(feature, level), c.Action(file))

	report.WriteSummary(w) //nolint:errcheck

	if !report.Success() {
		return cli.Exit("", 1) // the summary line is the message
	}

	return nil
}
