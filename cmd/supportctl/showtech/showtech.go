// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package showtech is the show-tech subcommand.
package showtech

import (
	"context"
	"fmt"
	"io"

	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/cmdstate"
	"github.com/matt-FFFFFF/supportctl/internal/showtech"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag  = "file"
	forceFlag = "force"
)

// NewCommand returns the show-tech command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "show-tech",
		Usage:     "Run the show-tech commands of the catalog",
		ArgsUsage: "[FEATURE [SUBFEATURE]]",
		Description: `Run the show-tech commands of every feature, of FEATURE or of one SUBFEATURE.
Each command runs through a shell and its output is framed by the command line.
Commands run one at a time; Ctrl-C stops the run after the current command.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      fileFlag,
				Aliases:   []string{"f"},
				Usage:     "Write the output to this file instead of the terminal",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:        forceFlag,
				Usage:       "Overwrite the output file if it exists",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
		},
		Action: actionFunc,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the show-tech features and sub features",
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

	tech, err := cat.ShowTech(ctx, st.Vars)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := showtech.List(cmd.Root().Writer, tech); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args()
	if args.Len() > 2 {
		return cli.Exit("Usage: supportctl show-tech "+cmd.ArgsUsage, 1)
	}

	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cat, err := st.Catalog(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	tech, err := cat.ShowTech(ctx, st.Vars)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	steps, err := showtech.Plan(tech, args.Get(0), args.Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var w io.Writer = cmd.Root().Writer

	path := cmd.String(fileFlag)
	if path != "" {
		f, err := showtech.CreateFile(st.Fs, path, cmd.Bool(forceFlag))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		defer f.Close() //nolint:errcheck

		w = f
	}

	runner := &showtech.Runner{}
	report := cmdstate.Collect(ctx, st, w, showtech.Collection, showtech.Phrases, steps, runner.Action())

	showtech.WriteSummary(w, report) //nolint:errcheck

	if path != "" {
		fmt.Fprintf(cmd.Root().Writer, "%s\nShow Tech output written to %s\n", report.Summary(), path) //nolint:errcheck
	}

	if !report.Success() {
		return cli.Exit("", 1) // the summary line is the message
	}

	return nil
}
