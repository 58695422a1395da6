// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/interrupt"
)

var (
	// ErrTimeoutExceeded is the cancellation cause when an item hits the hard deadline.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrUserCancelled is the cancellation cause when the operator interrupt outlives the grace period.
	ErrUserCancelled = errors.New("cancelled by user")
	// ErrWorkerSpawn is returned when the worker could not be started.
	ErrWorkerSpawn = errors.New("could not start worker")
	// ErrWorkerAbandoned is recorded when a cancelled worker did not finish its cleanup in time.
	ErrWorkerAbandoned = errors.New("worker did not finish cleanup, abandoned")
)

// ErrWorkerPanic is the error recorded when an action panics.
// It is constructed with the value that caused the panic.
type ErrWorkerPanic struct {
	v any
}

// NewErrWorkerPanic creates a new ErrWorkerPanic with the given value.
func NewErrWorkerPanic(v any) error {
	return &ErrWorkerPanic{v: v}
}

// Error implements the error interface for ErrWorkerPanic.
func (e *ErrWorkerPanic) Error() string {
	prefix := "worker panic:"

	switch x := e.v.(type) {
	case string:
		return fmt.Sprintf("%s %s", prefix, x)
	case error:
		return fmt.Sprintf("%s %s", prefix, x.Error())
	default:
		return fmt.Sprintf("%s %v", prefix, x)
	}
}

// Unwrap returns the panic value if it was an error.
func (e *ErrWorkerPanic) Unwrap() error {
	err, _ := e.v.(error)
	return err
}

// Dispatcher runs one item at a time on a worker goroutine.
type Dispatcher[T any] struct {
	state *interrupt.State
	cfg   config
}

// NewDispatcher returns a Dispatcher that observes state for the grace period.
// A nil state disables operator interrupts.
func NewDispatcher[T any](state *interrupt.State, opts ...Option) *Dispatcher[T] {
	return &Dispatcher[T]{
		state: state,
		cfg:   newConfig(opts),
	}
}

// HardTimeout returns the per-item deadline budget.
func (d *Dispatcher[T]) HardTimeout() time.Duration {
	return d.cfg.hardTimeout
}

// Dispatch runs action for item and returns exactly one outcome.
//
// It returns once the worker has finished its cleanup, or once the cleanup timeout has
// elapsed after the worker was cancelled, in which case the result is marked Abandoned.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, item WorkItem[T], action Action[T]) (res ItemResult) {
	logger := ctxlog.Logger(ctx).With("item", item.Name)

	res = ItemResult{
		Name:    item.Name,
		Started: time.Now(),
	}

	defer func() {
		res.Duration = time.Since(res.Started)
	}()

	out := item.Output
	if out == nil {
		out = io.Discard
	}

	base, cancelCause := context.WithCancelCause(ctx)
	defer cancelCause(nil)

	workerCtx, cancelDeadline := context.WithDeadlineCause(base, res.Started.Add(d.cfg.hardTimeout), ErrTimeoutExceeded)
	defer cancelDeadline()

	scope := NewScope()
	workerCtx = WithScope(workerCtx, scope)

	var actionErr error

	finished := make(chan struct{})
	cleaned := make(chan struct{})

	worker := func() {
		defer close(cleaned)

		defer func() {
			if err := scope.Close(); err != nil {
				logger.Debug("error closing item resources", "error", err)
			}
		}()

		defer func() {
			if r := recover(); r != nil {
				logger.Error("action panicked", "panic", r)
				actionErr = NewErrWorkerPanic(r)
				close(finished)
			}
		}()

		actionErr = action(workerCtx, item, out)
		close(finished)
	}

	if err := d.cfg.spawn(worker); err != nil {
		logger.Error("could not start worker", "error", err)

		res.Outcome = OutcomeFailed
		res.Err = errors.Join(ErrWorkerSpawn, err)

		return res
	}

	var graceCh <-chan struct{}
	if d.state != nil {
		graceCh = d.state.GraceElapsed()
	}

	select {
	case <-finished:
		if actionErr != nil && workerCtx.Err() != nil {
			// The action saw its context end and returned because of it.
			return d.ended(ctx, res, workerCtx, cancelCause, scope, cleaned, &actionErr)
		}

		return d.completed(ctx, res, actionErr, cleaned)

	case <-workerCtx.Done():
		select {
		case <-finished:
			if actionErr == nil {
				logger.Debug("action finished as its context ended, keeping the real outcome")
				return d.completed(ctx, res, actionErr, cleaned)
			}
		default:
		}

		return d.ended(ctx, res, workerCtx, cancelCause, scope, cleaned, &actionErr)

	case <-graceCh:
		select {
		case <-finished:
			return d.completed(ctx, res, actionErr, cleaned)
		default:
		}

		logger.Info("grace period elapsed, cancelling item")

		res.Outcome = OutcomeUserCancelled

		return d.cancel(ctx, res, ErrUserCancelled, cancelCause, scope, cleaned, &actionErr)
	}
}

// ended classifies an item whose context ended, by the cause: the hard deadline is
// TimedOut, anything else (parent cancellation) is UserCancelled.
func (d *Dispatcher[T]) ended(
	ctx context.Context,
	res ItemResult,
	workerCtx context.Context,
	cancelCause context.CancelCauseFunc,
	scope *Scope,
	cleaned <-chan struct{},
	actionErr *error,
) ItemResult {
	cause := context.Cause(workerCtx)
	if errors.Is(cause, ErrTimeoutExceeded) {
		res.Outcome = OutcomeTimedOut
		res.DeadlineElapsed = true
	} else {
		res.Outcome = OutcomeUserCancelled
		cause = errors.Join(ErrUserCancelled, cause)
	}

	ctxlog.Info(ctx, "cancelling item", "item", res.Name, "outcome", res.Outcome.String(), "cause", cause)

	return d.cancel(ctx, res, cause, cancelCause, scope, cleaned, actionErr)
}

func (d *Dispatcher[T]) completed(ctx context.Context, res ItemResult, actionErr error, cleaned <-chan struct{}) ItemResult {
	if !d.join(ctx, cleaned) {
		res.Abandoned = true
	}

	if d.state != nil && d.state.GraceArmed() {
		d.state.DisarmGrace()
	}

	if actionErr != nil {
		res.Outcome = OutcomeFailed
		res.Err = actionErr

		return res
	}

	res.Outcome = OutcomeSuccess

	return res
}

// cancel tears the worker down: cancel its context, close its resources so blocked I/O
// returns, then wait for the cleanup barrier.
func (d *Dispatcher[T]) cancel(
	ctx context.Context,
	res ItemResult,
	cause error,
	cancelCause context.CancelCauseFunc,
	scope *Scope,
	cleaned <-chan struct{},
	actionErr *error,
) ItemResult {
	cancelCause(cause)

	res.WorkerCancelled = true
	res.Err = cause

	if err := scope.Close(); err != nil {
		ctxlog.Debug(ctx, "error closing item resources", "item", res.Name, "error", err)
	}

	if !d.join(ctx, cleaned) {
		res.Abandoned = true
		res.Err = errors.Join(res.Err, ErrWorkerAbandoned)

		return res
	}

	// The worker has exited, so its error is safe to read.
	if *actionErr != nil && !isCancellation(*actionErr) {
		res.Err = errors.Join(res.Err, *actionErr)
	}

	return res
}

// join waits for the worker's cleanup. It returns false if the cleanup timeout elapsed first.
func (d *Dispatcher[T]) join(ctx context.Context, cleaned <-chan struct{}) bool {
	t := time.NewTimer(d.cfg.cleanupTimeout)
	defer t.Stop()

	select {
	case <-cleaned:
		return true
	case <-t.C:
		ctxlog.Error(ctx, "worker ignored cancellation, abandoning it", "cleanupTimeout", d.cfg.cleanupTimeout)
		return false
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrTimeoutExceeded) ||
		errors.Is(err, ErrUserCancelled)
}
