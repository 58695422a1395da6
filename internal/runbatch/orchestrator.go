// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/interrupt"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
)

// Orchestrator dispatches an ordered list of items one at a time.
type Orchestrator[T any] struct {
	name       string
	state      *interrupt.State
	sink       io.Writer
	dispatcher *Dispatcher[T]
	cfg        config
}

// NewOrchestrator returns an Orchestrator called name (used in logs, events and metrics).
// Items without their own Output write to sink. The state must not be nil. It is reset
// at the start of every Run unless WithPreparedState is given.
func NewOrchestrator[T any](name string, state *interrupt.State, sink io.Writer, opts ...Option) *Orchestrator[T] {
	if sink == nil {
		sink = io.Discard
	}

	return &Orchestrator[T]{
		name:       name,
		state:      state,
		sink:       sink,
		dispatcher: NewDispatcher[T](state, opts...),
		cfg:        newConfig(opts),
	}
}

// Name returns the collection name.
func (o *Orchestrator[T]) Name() string {
	return o.name
}

// Run dispatches items in order and returns the report.
//
// The run stops before the next item once an interrupt has been requested, and stops
// immediately after an item is cancelled by the operator. Timed out and failed items
// do not stop the run.
func (o *Orchestrator[T]) Run(ctx context.Context, items []WorkItem[T], action Action[T]) *Report {
	if !o.cfg.stateReady {
		o.state.Reset()
	}

	report := &Report{
		RunID:      uuid.NewString(),
		Collection: o.name,
		Results:    make([]ItemResult, 0, len(items)),
		Started:    time.Now(),
		phrases:    o.cfg.phrases,
	}

	ctx = ctxlog.With(ctx, "runID", report.RunID, "collection", o.name)
	ctx = progress.WithReporter(ctx, o.cfg.reporter)
	ctxlog.Debug(ctx, "starting run", "items", len(items), "hardTimeout", o.dispatcher.HardTimeout())

	defer func() {
		report.Finished = time.Now()
		report.InterruptRequested = o.state.InterruptRequested()
		report.GraceElapsed = o.state.GraceExpired()
		ctxlog.Info(ctx, "run finished",
			"attempted", report.Attempted,
			"succeeded", report.Succeeded,
			"userCancelled", report.UserCancelled,
		)
	}()

	for _, item := range items {
		if o.state.InterruptRequested() || ctx.Err() != nil {
			ctxlog.Info(ctx, "interrupt requested, not starting further items", "next", item.Name)
			report.UserCancelled = true

			break
		}

		if item.Output == nil {
			item.Output = o.sink
		}

		report.Attempted++

		o.cfg.reporter.Report(progress.New(progress.EventStarted, "started", o.name, item.Name))

		res := o.dispatcher.Dispatch(ctx, item, action)
		report.Results = append(report.Results, res)

		if res.Outcome == OutcomeSuccess {
			report.Succeeded++
		}

		report.DeadlineElapsed = report.DeadlineElapsed || res.DeadlineElapsed
		report.WorkerCancelled = report.WorkerCancelled || res.WorkerCancelled

		o.emit(res)

		if res.Outcome == OutcomeTimedOut {
			fmt.Fprintln(item.Output, o.cfg.phrases.TimedOutLine(item.Name)) //nolint:errcheck
		}

		if res.Outcome == OutcomeUserCancelled || o.state.InterruptRequested() {
			report.UserCancelled = true
			break
		}
	}

	return report
}

func (o *Orchestrator[T]) emit(res ItemResult) {
	var typ progress.EventType

	switch res.Outcome {
	case OutcomeSuccess:
		typ = progress.EventCompleted
	case OutcomeFailed:
		typ = progress.EventFailed
	case OutcomeTimedOut:
		typ = progress.EventTimedOut
	case OutcomeUserCancelled:
		typ = progress.EventCancelled
	}

	ev := progress.New(typ, res.Outcome.String(), o.name, res.Name)
	ev.Data.Duration = res.Duration
	ev.Data.Error = res.Err

	o.cfg.reporter.Report(ev)
}
