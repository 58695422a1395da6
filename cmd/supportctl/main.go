// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the supportctl command-line interface (CLI).
package main

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/supportctl/cmd/supportctl/app"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/signalbroker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	defer cancel()

	// SIGINT is handled per collection, see signalbroker.Install.
	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	err := app.New().Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Debug("command execution failed", "error", err)
		os.Exit(1)
	}
}
