// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package shell is the interactive supportctl session.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/cmdstate"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v3"
)

// Prompt is shown before every line.
const Prompt = "supportctl> "

type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

var newPrompter = func() prompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	return line
}

// NewCommand returns the shell command. newRoot builds the command tree that runs each line.
func NewCommand(newRoot func() *cli.Command) *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive supportctl session",
		Description: `Read supportctl commands from the terminal and run them one at a time.
The global flags given when the shell starts apply to every line.
Ctrl-C during a collection stops the collection and returns to the prompt.
Ctrl-C at the prompt, Ctrl-D, quit or exit leave the shell.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, newRoot)
		},
	}
}

func run(ctx context.Context, cmd *cli.Command, newRoot func() *cli.Command) error {
	st, err := cmdstate.From(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	w := cmd.Root().Writer
	errw := cmd.Root().ErrWriter

	line := newPrompter()

	defer func() {
		_ = line.Close()
	}()

	fmt.Fprintln(w, "Entering the supportctl shell, type `quit` or `exit` or press Ctrl+C to quit.") //nolint:errcheck

	for ctx.Err() == nil {
		input, err := line.Prompt(Prompt)

		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(w, "Aborted") //nolint:errcheck
			return nil
		case errors.Is(err, io.EOF):
			fmt.Fprintln(w) //nolint:errcheck
			return nil
		case err != nil:
			return cli.Exit(fmt.Sprintf("Error reading line: %s", err), 1)
		}

		args := strings.Fields(input)
		if len(args) == 0 {
			continue
		}

		if args[0] == "quit" || args[0] == "exit" {
			return nil
		}

		line.AppendHistory(input)

		if args[0] == cmd.Name {
			fmt.Fprintln(errw, "already in the supportctl shell") //nolint:errcheck
			continue
		}

		runLine(ctx, st, newRoot(), w, errw, args)
	}

	return nil
}

// runLine runs args with a fresh root command. The command tree finds its parent through
// the context, so each line starts from a new context that shares the logger, the
// cancellation and the command state of the shell.
func runLine(ctx context.Context, st *cmdstate.State, root *cli.Command, w, errw io.Writer, args []string) {
	lineCtx, cancel := context.WithCancel(ctxlog.New(context.Background(), ctxlog.Logger(ctx)))
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	lineCtx = cmdstate.With(lineCtx, st)

	root.Writer = w
	root.ErrWriter = errw
	root.ExitErrHandler = func(_ context.Context, _ *cli.Command, err error) {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(errw, msg) //nolint:errcheck
		}
	}

	if err := root.Run(lineCtx, append([]string{root.Name}, args...)); err != nil {
		ctxlog.Debug(ctx, "shell command failed", "line", strings.Join(args, " "), "error", err)
	}
}
