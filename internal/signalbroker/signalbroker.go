// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker connects OS signals to the rest of the program.
//
// New and Watch handle process termination: the second signal of a given type cancels
// the root context. Install handles the operator interrupt around a single collection
// run and must always be paired with Installation.Restore.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// These are replaced in tests.
var (
	notify = signal.Notify
	stop   = signal.Stop
)

// New creates a channel that receives the signals that should terminate the process.
// SIGINT is left to Install so that Ctrl-C interrupts a collection rather than the process.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "creating signal broker", "signals", sigs)
	notify(ch, sigs...)

	return ch
}
