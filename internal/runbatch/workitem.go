// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"io"
	"time"
)

// WorkItem is one unit of a collection run, e.g. a daemon to query or a command to execute.
// It must not be modified after it is dispatched.
type WorkItem[T any] struct {
	Name   string    // Daemon name or command line, used in reports
	Value  T         // Action specific payload
	Output io.Writer // Optional per-item output, nil means the run's sink
}

// Action performs the blocking work for one item and writes human readable output to out.
// A nil error is a success. Actions should honour ctx and open sockets, pipes and files
// through Acquire.
type Action[T any] func(ctx context.Context, item WorkItem[T], out io.Writer) error

// Outcome is the terminal state of one dispatched item.
type Outcome int

const (
	// OutcomeSuccess means the action returned nil.
	OutcomeSuccess Outcome = iota
	// OutcomeFailed means the action returned an error or could not be started.
	OutcomeFailed
	// OutcomeTimedOut means the action did not finish before the hard deadline.
	OutcomeTimedOut
	// OutcomeUserCancelled means the operator interrupt outlived the grace period,
	// or the process is terminating.
	OutcomeUserCancelled
)

// String implements the Stringer interface for Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeUserCancelled:
		return "user-cancelled"
	default:
		return "unknown"
	}
}

// ItemResult is what the dispatcher knows about one item once it returns.
type ItemResult struct {
	Name            string
	Outcome         Outcome
	Err             error
	Started         time.Time
	Duration        time.Duration
	DeadlineElapsed bool // the hard deadline fired before the action finished
	WorkerCancelled bool // the worker context was cancelled by the dispatcher
	Abandoned       bool // the worker did not finish its cleanup within the cleanup timeout
}
