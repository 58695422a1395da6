// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries live events from a collection run to whoever is watching it,
// usually the TUI. Reporting never blocks the run: a full or closed reporter drops events.
package progress
