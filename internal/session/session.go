// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package session runs one collection with the operator interrupt installed around it.
package session

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/interrupt"
	"github.com/matt-FFFFFF/supportctl/internal/metrics"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/signalbroker"
)

// Fatal ends the process when the signal handlers could not be restored.
var Fatal = func() {
	os.Exit(1)
}

type restorer interface {
	Restore() error
}

var installSignals = func(ctx context.Context, state *interrupt.State, warn io.Writer) restorer {
	return signalbroker.Install(ctx, state, warn)
}

// Session is shared by every collection of one process.
type Session struct {
	State          *interrupt.State
	Out            io.Writer // report and item output
	Warn           io.Writer // interrupt warning, defaults to Out
	HardTimeout    time.Duration
	CleanupTimeout time.Duration

	Metrics         *metrics.Recorder
	MetricsTextfile string

	// Reporter receives progress events. The TUI installs one per run.
	Reporter progress.Reporter
}

// New returns a Session writing to out with a fresh interrupt state.
func New(out io.Writer, opts ...interrupt.Option) *Session {
	return &Session{
		State:   interrupt.New(opts...),
		Out:     out,
		Metrics: metrics.New(),
	}
}

// WithReporter returns a shallow copy of s that sends progress events to r.
func (s *Session) WithReporter(r progress.Reporter) *Session {
	cp := *s
	cp.Reporter = r

	return &cp
}

// WithOutput returns a shallow copy of s writing to w.
func (s *Session) WithOutput(w io.Writer) *Session {
	cp := *s
	cp.Out = w

	return &cp
}

func (s *Session) warn() io.Writer {
	if s.Warn != nil {
		return s.Warn
	}

	return s.Out
}

// Collect runs items through a fresh orchestrator called name. The caller prints the summary.
// SIGINT is routed to s.State for the duration of the run and restored on every path.
func Collect[T any](
	ctx context.Context,
	s *Session,
	name string,
	phrases runbatch.Phrases,
	items []runbatch.WorkItem[T],
	action runbatch.Action[T],
) *runbatch.Report {
	s.State.Reset()

	in := installSignals(ctx, s.State, s.warn())

	defer func() {
		if err := in.Restore(); err != nil {
			ctxlog.Error(ctx, "could not restore signal handlers", "collection", name, "error", err)
			Fatal()
		}
	}()

	opts := []runbatch.Option{
		runbatch.WithHardTimeout(s.HardTimeout),
		runbatch.WithCleanupTimeout(s.CleanupTimeout),
		runbatch.WithPhrases(phrases),
		runbatch.WithPreparedState(),
	}

	if s.Reporter != nil {
		opts = append(opts, runbatch.WithReporter(s.Reporter))
	}

	report := runbatch.NewOrchestrator[T](name, s.State, s.Out, opts...).Run(ctx, items, action)

	s.observe(ctx, report)

	return report
}

func (s *Session) observe(ctx context.Context, report *runbatch.Report) {
	if s.Metrics == nil {
		return
	}

	s.Metrics.Observe(report)

	if s.MetricsTextfile == "" {
		return
	}

	if err := s.Metrics.WriteTextfile(s.MetricsTextfile); err != nil {
		ctxlog.Warn(ctx, "metrics not written", "path", s.MetricsTextfile, "error", err)
	}
}
