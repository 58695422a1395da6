// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package coredump is the core-dump subcommand.
package coredump

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/cmdstate"
	"github.com/matt-FFFFFF/supportctl/internal/coredump"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	instanceFlag   = "instance-id"
	tftpScriptFlag = "tftp-script"
	sftpScriptFlag = "sftp-script"
)

// NewCommand returns the core-dump command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "core-dump",
		Usage: "Inspect and copy daemon and kernel core dumps",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "List the core dumps present on the system",
				Action: showAction,
			},
			{
				Name:      "copy",
				Usage:     "Copy core dumps off the switch with tftp or sftp",
				ArgsUsage: "DAEMON|kernel (tftp HOST | sftp USER HOST) [FILE]",
				Description: `Copy every core of DAEMON, or the kernel core, to HOST.
FILE renames the copy. It needs --instance-id for a daemon, since a daemon
may have several cores. Copies run one at a time under the hard timeout.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    instanceFlag,
						Aliases: []string{"i"},
						Usage:   "Only copy the cores of this daemon instance",
					},
					&cli.StringFlag{
						Name:      tftpScriptFlag,
						Usage:     "Path of the tftp transfer script",
						Value:     coredump.DefaultTFTPScript,
						Sources:   cli.EnvVars("SUPPORTCTL_TFTP_SCRIPT"),
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      sftpScriptFlag,
						Usage:     "Path of the sftp transfer script",
						Value:     coredump.DefaultSFTPScript,
						Sources:   cli.EnvVars("SUPPORTCTL_SFTP_SCRIPT"),
						TakesFile: true,
					},
				},
				Action: copyAction,
			},
		},
	}
}

func showAction(ctx context.Context, cmd *cli.Command) error {
	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cat, err := st.Catalog(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg, err := cat.CoreDump()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	dumps, err := coredump.Scan(st.Fs, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctxlog.Debug(ctx, "core dumps found", "count", len(dumps), "daemonPath", cfg.DaemonPath, "kernelPath", cfg.KernelPath)

	if err := coredump.Write(cmd.Root().Writer, dumps); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

// copyRequest reads DAEMON PROTOCOL [USER] HOST [FILE].
func copyRequest(cmd *cli.Command) (*coredump.CopyRequest, error) {
	args := cmd.Args().Slice()
	if len(args) < 3 {
		return nil, fmt.Errorf("%w: usage: supportctl core-dump copy %s", coredump.ErrInvalidParameter, cmd.ArgsUsage)
	}

	r := &coredump.CopyRequest{
		Daemon:   args[0],
		Instance: cmd.String(instanceFlag),
		Protocol: coredump.Protocol(args[1]),
	}

	rest := args[2:]

	if r.Protocol == coredump.SFTP {
		r.User, rest = rest[0], rest[1:]
	}

	switch len(rest) {
	case 1:
		r.Host = rest[0]
	case 2:
		r.Host, r.DestFile = rest[0], rest[1]
	default:
		return nil, fmt.Errorf("%w: usage: supportctl core-dump copy %s", coredump.ErrInvalidParameter, cmd.ArgsUsage)
	}

	if r.Kernel() && r.Instance != "" {
		return nil, fmt.Errorf("%w: the kernel core has no instance id", coredump.ErrInvalidParameter)
	}

	if r.DestFile != "" && !r.Kernel() && r.Instance == "" {
		return nil, fmt.Errorf("%w: a destination file name needs --%s", coredump.ErrInvalidParameter, instanceFlag)
	}

	return r, r.Validate()
}

func copyAction(ctx context.Context, cmd *cli.Command) error {
	req, err := copyRequest(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	script := cmd.String(tftpScriptFlag)
	if req.Protocol == coredump.SFTP {
		script = cmd.String(sftpScriptFlag)
	}

	if err := coredump.CheckScript(st.Fs, script); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cat, err := st.Catalog(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg, err := cat.CoreDump()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	dumps, err := coredump.Scan(st.Fs, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	selected := req.Select(dumps)
	if len(selected) == 0 {
		fmt.Fprintln(cmd.Root().Writer, req.NotFound()) //nolint:errcheck
		return nil
	}

	w := cmd.Root().Writer
	report := cmdstate.Collect(ctx, st, w, coredump.CopyCollection, coredump.CopyPhrases,
		req.Transfers(script, selected), coredump.CopyAction())

	report.WriteSummary(w) //nolint:errcheck

	if !report.Success() {
		return cli.Exit("", 1) // the summary line is the message
	}

	return nil
}
