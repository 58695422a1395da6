// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui shows the progress of a collection run in the terminal. Each dispatched
// item is a row with its status, elapsed time and the last line of output it produced.
//
// The TUI owns the terminal while it runs, so Ctrl-C arrives as a key press rather than
// as SIGINT. The runner forwards it to the interrupt callback, which gives the same grace
// period behaviour as the signal installer.
package tui
