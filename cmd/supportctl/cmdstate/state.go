// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate carries the state built from the global flags to the subcommands.
// The root command's Before hook stores it in the context.
package cmdstate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/session"
	"github.com/matt-FFFFFF/supportctl/internal/tui"
	"github.com/spf13/afero"
)

// ErrNoState is returned when a subcommand runs without the root command.
var ErrNoState = errors.New("command state missing from context")

type ctxKey struct{}

// State is shared by the subcommands of one invocation.
type State struct {
	Session         *session.Session
	RunDir          string
	CatalogLocation string
	DumpDir         string
	Vars            map[string]string // show-tech catalog variables
	TUI             bool
	Fs              afero.Fs
	ErrWriter       io.Writer

	mu      sync.Mutex
	catalog *catalog.Catalog
}

// With returns a context holding s.
func With(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the State stored by With.
func From(ctx context.Context) (*State, error) {
	s, ok := ctx.Value(ctxKey{}).(*State)
	if !ok || s == nil {
		return nil, ErrNoState
	}

	return s, nil
}

// Catalog opens the catalog on first use. Remote locations are fetched once per invocation.
func (s *State) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		return s.catalog, nil
	}

	c, err := catalog.Open(ctx, s.CatalogLocation)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	s.catalog = c

	return c, nil
}

func (s *State) errWriter() io.Writer {
	if s.ErrWriter != nil {
		return s.ErrWriter
	}

	return os.Stderr
}

// Collect runs items through the session, writing item output to w.
// With the TUI enabled the output is buffered and written once the user leaves the TUI.
func Collect[T any](
	ctx context.Context,
	s *State,
	w io.Writer,
	name string,
	phrases runbatch.Phrases,
	items []runbatch.WorkItem[T],
	action runbatch.Action[T],
) *runbatch.Report {
	sess := s.Session.WithOutput(w)

	if !s.TUI {
		return session.Collect(ctx, sess, name, phrases, items, action)
	}

	var out, logs bytes.Buffer

	tuiCtx := ctxlog.NewForTUI(ctx, &logs)
	state := sess.State

	runner := tui.NewRunner(tuiCtx, name, tui.WithInterrupt(func() {
		if state.RequestInterrupt() {
			ctxlog.Info(tuiCtx, "interrupt requested from the TUI")
		}
	}))

	report, err := runner.Run(tuiCtx, func(r progress.Reporter) *runbatch.Report {
		return session.Collect(tuiCtx, sess.WithOutput(&out).WithReporter(r), name, phrases, items, action)
	})

	out.WriteTo(w)              //nolint:errcheck
	logs.WriteTo(s.errWriter()) //nolint:errcheck

	if err != nil {
		ctxlog.Error(ctx, "TUI execution error", "error", err)
	}

	return report
}
