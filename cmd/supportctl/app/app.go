// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package app builds the supportctl command tree.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/matt-FFFFFF/supportctl"
	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/cmdstate"
	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/coredump"
	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/diagdump"
	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/events"
	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/shell"
	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/showtech"
	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/vlog"
	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	dump "github.com/matt-FFFFFF/supportctl/internal/diagdump"
	"github.com/matt-FFFFFF/supportctl/internal/interrupt"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/session"
	"github.com/matt-FFFFFF/supportctl/internal/unixctl"
	"github.com/urfave/cli/v3"
)

const (
	runDirFlag          = "rundir"
	catalogDirFlag      = "catalog-dir"
	timeoutFlag         = "timeout"
	cleanupTimeoutFlag  = "cleanup-timeout"
	graceFlag           = "grace"
	logLevelFlag        = "log-level"
	logFormatFlag       = "log-format"
	metricsTextfileFlag = "metrics-textfile"
	tuiFlag             = "tui"
	varFlag             = "var"
	dumpDirFlag         = "dump-dir"

	envPrefix = "SUPPORTCTL_"

	logFormatPretty = "pretty"
	logFormatJSON   = "json"
)

func env(flag string) cli.ValueSourceChain {
	return cli.EnvVars(envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_")))
}

// New returns a fresh root command. The interactive shell builds one per input line.
func New() *cli.Command {
	return &cli.Command{
		Name:  "supportctl",
		Usage: "supportctl show-tech lldp",
		Description: `supportctl collects support data from the daemons of a network switch.
It captures diagnostic dumps over the daemons' control sockets, runs show-tech command
sets, lists core dumps and event logs, and reads or changes daemon log levels.

Press Ctrl-C once during a collection to stop after the current item; the rest of the
run is skipped and the command reports that it was terminated by the user.

The catalog directory may also be a go-getter URL.
See https://github.com/hashicorp/go-getter.`,
		Version:   fmt.Sprintf("%s (commit: %s)", supportctl.Version, supportctl.Commit),
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
		Flags:                 globalFlags(),
		Before:                before,
		Commands: []*cli.Command{
			diagdump.NewCommand(),
			showtech.NewCommand(),
			coredump.NewCommand(),
			events.NewCommand(),
			vlog.NewCommand(),
			shell.NewCommand(New),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      runDirFlag,
			Usage:     "Directory holding the daemons' pid files and control sockets",
			Value:     unixctl.DefaultRunDir,
			Sources:   env(runDirFlag),
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      catalogDirFlag,
			Aliases:   []string{"catalog"},
			Usage:     "Directory or go-getter URL of the supportability catalog",
			Value:     catalog.DefaultDir,
			Sources:   env(catalogDirFlag),
			TakesFile: true,
		},
		&cli.DurationFlag{
			Name:    timeoutFlag,
			Usage:   "Maximum time a single daemon or command may take",
			Value:   runbatch.DefaultHardTimeout,
			Sources: env(timeoutFlag),
		},
		&cli.DurationFlag{
			Name:    cleanupTimeoutFlag,
			Usage:   "Time a timed out worker gets to clean up before it is abandoned",
			Value:   runbatch.DefaultCleanupTimeout,
			Sources: env(cleanupTimeoutFlag),
		},
		&cli.DurationFlag{
			Name:    graceFlag,
			Usage:   "Time the current item gets to finish after Ctrl-C",
			Value:   interrupt.DefaultGracePeriod,
			Sources: env(graceFlag),
		},
		&cli.StringFlag{
			Name:    logLevelFlag,
			Usage:   "Log level: debug, info, warn or error",
			Sources: env(logLevelFlag),
		},
		&cli.StringFlag{
			Name:    logFormatFlag,
			Usage:   "Log format: pretty or json",
			Value:   logFormatPretty,
			Sources: env(logFormatFlag),
		},
		&cli.StringFlag{
			Name:      metricsTextfileFlag,
			Usage:     "Write Prometheus metrics of each run to this file",
			Sources:   env(metricsTextfileFlag),
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:        tuiFlag,
			Aliases:     []string{"t", "interactive"},
			Usage:       "Show collections in an interactive Terminal User Interface (TUI)",
			Value:       false,
			DefaultText: "false",
			Sources:     env(tuiFlag),
		},
		&cli.StringMapFlag{
			Name:    varFlag,
			Usage:   "Set a show-tech catalog variable, e.g. --var vrf=red",
			Sources: env(varFlag),
		},
		&cli.StringFlag{
			Name:      dumpDirFlag,
			Usage:     "Directory receiving diagnostic dump files",
			Value:     dump.DefaultDumpDir,
			Sources:   env(dumpDirFlag),
			TakesFile: true,
		},
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	// Lines of the interactive shell keep the state of the shell.
	if _, err := cmdstate.From(ctx); err == nil {
		return ctx, nil
	}

	if cmd.IsSet(logLevelFlag) {
		level, ok := ctxlog.ParseLevel(cmd.String(logLevelFlag))
		if !ok {
			return ctx, cli.Exit(fmt.Sprintf("invalid log level %q", cmd.String(logLevelFlag)), 1)
		}

		ctxlog.LevelVar.Set(level)
	}

	switch cmd.String(logFormatFlag) {
	case logFormatPretty:
		ctx = ctxlog.New(ctx, ctxlog.NewPretty(cmd.ErrWriter))
	case logFormatJSON:
		ctx = ctxlog.New(ctx, ctxlog.NewJSON(cmd.ErrWriter))
	default:
		return ctx, cli.Exit(fmt.Sprintf("invalid log format %q", cmd.String(logFormatFlag)), 1)
	}

	sess := session.New(cmd.Writer, interrupt.WithGracePeriod(cmd.Duration(graceFlag)))
	sess.HardTimeout = cmd.Duration(timeoutFlag)
	sess.CleanupTimeout = cmd.Duration(cleanupTimeoutFlag)
	sess.MetricsTextfile = cmd.String(metricsTextfileFlag)

	st := &cmdstate.State{
		Session:         sess,
		RunDir:          cmd.String(runDirFlag),
		CatalogLocation: cmd.String(catalogDirFlag),
		DumpDir:         cmd.String(dumpDirFlag),
		Vars:            cmd.StringMap(varFlag),
		TUI:             cmd.Bool(tuiFlag),
		Fs:              unixctl.FsFactory(),
		ErrWriter:       cmd.ErrWriter,
	}

	ctxlog.Debug(ctx, "supportctl starting",
		"rundir", st.RunDir, "catalog", st.CatalogLocation, "timeout", sess.HardTimeout, "grace", sess.State.GracePeriod())

	return cmdstate.With(ctx, st), nil
}
