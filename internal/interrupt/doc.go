// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package interrupt holds the cancellation state shared between the signal relay and the
// dispatcher.
//
// A State is created by the caller and passed by pointer. The first operator interrupt of a run
// arms a grace timer; if the in-flight item does not finish before the timer fires, the
// channel returned by GraceElapsed is closed and the dispatcher cancels the item.
//
// The lifecycle is modelled as a small state machine:
//
//	idle --interrupt--> armed --expire--> expired
//	                    armed --disarm--> disarmed
//	any  --reset------> idle
package interrupt
