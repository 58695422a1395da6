// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/interrupt"
)

// restoreTimeout bounds the wait for the relay goroutine to stop.
var restoreTimeout = time.Second

var (
	// ErrAlreadyRestored is returned by a second call to Restore.
	ErrAlreadyRestored = errors.New("signal handlers already restored")
	// ErrRelayStuck is returned when the relay goroutine did not stop in time.
	ErrRelayStuck = errors.New("signal relay did not stop")
)

// Installation is the interrupt handling for one collection run.
type Installation struct {
	ch      chan os.Signal
	done    chan struct{}
	stopped chan struct{}

	mu       sync.Mutex
	restored bool
}

// Install routes SIGINT to state until Restore is called.
// The first interrupt of a run prints a warning to warn and arms the grace timer;
// later interrupts are only logged.
func Install(ctx context.Context, state *interrupt.State, warn io.Writer) *Installation {
	if warn == nil {
		warn = io.Discard
	}

	in := &Installation{
		ch:      make(chan os.Signal, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	notify(in.ch, syscall.SIGINT)

	go in.relay(ctx, state, warn)

	return in
}

func (in *Installation) relay(ctx context.Context, state *interrupt.State, warn io.Writer) {
	defer close(in.stopped)

	for {
		select {
		case <-in.done:
			return
		case sig := <-in.ch:
			if state.RequestInterrupt() {
				fmt.Fprintf(warn, //nolint:errcheck
					"\nInterrupt received, waiting up to %s for the current task to finish.\n",
					state.GracePeriod())
				ctxlog.Info(ctx, "interrupt requested", "signal", sig.String())

				continue
			}

			ctxlog.Debug(ctx, "interrupt already requested, ignoring", "signal", sig.String())
		}
	}
}

// Restore stops delivering SIGINT to this installation and waits for the relay to exit.
// After Restore returns, SIGINT has its previous disposition.
func (in *Installation) Restore() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.restored {
		return ErrAlreadyRestored
	}

	in.restored = true

	stop(in.ch)
	close(in.done)

	t := time.NewTimer(restoreTimeout)
	defer t.Stop()

	select {
	case <-in.stopped:
		return nil
	case <-t.C:
		return ErrRelayStuck
	}
}
