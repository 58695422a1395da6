// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs one blocking action per work item with a hard deadline and an
// operator interrupt, and aggregates the outcomes into a Report.
//
// A Dispatcher runs exactly one item on a worker goroutine. An Orchestrator walks an
// ordered list of items through a Dispatcher, one at a time, and stops early when the
// operator interrupts the run.
//
// Actions open their OS resources through Acquire so the dispatcher can close them when
// the item is cancelled, which unblocks reads that do not observe the context.
package runbatch
