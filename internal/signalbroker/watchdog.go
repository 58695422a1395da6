// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
)

// Watch monitors the signal channel and cancels the context on the second signal of a
// given type. It returns when that happens, when sigCh is closed or when ctx is done.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	sigMap := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, seen := sigMap[sig]; seen {
				ctxlog.Warn(ctx, "watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())
				stop(sigCh)
				cancel()

				return
			}

			ctxlog.Warn(ctx, "watchdog", "detail", "received first signal of type, send again to terminate", "signal", sig.String())

			sigMap[sig] = struct{}{}
		}
	}
}
