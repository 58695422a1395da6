// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a single update about one item of a collection run.
type Event struct {
	Path      []string  // e.g. ["diag-dump lldp", "ops-lldpd"]
	Type      EventType // What happened
	Message   string    // Human readable status
	Timestamp time.Time // When it happened
	Data      EventData // Type specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates an item has been dispatched.
	EventStarted EventType = iota
	// EventOutput indicates a new line of item output.
	EventOutput
	// EventCompleted indicates the item succeeded.
	EventCompleted
	// EventFailed indicates the item failed.
	EventFailed
	// EventTimedOut indicates the item hit the hard deadline.
	EventTimedOut
	// EventCancelled indicates the item was cancelled by the operator.
	EventCancelled
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventTimedOut:
		return "timed-out"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events will follow for the item.
func (et EventType) Terminal() bool {
	return et >= EventCompleted && et <= EventCancelled
}

// EventData contains type-specific information for progress events.
type EventData struct {
	// For EventOutput
	OutputLine string

	// For terminal events
	Duration time.Duration
	Error    error
}

// Reporter sends progress events. Implementations must not block.
type Reporter interface {
	Report(event Event)
	Close()
}

// Listener receives progress events.
type Listener interface {
	OnEvent(event Event)
}

// NullReporter discards every event.
type NullReporter struct{}

// Report implements Reporter.
func (*NullReporter) Report(Event) {}

// Close implements Reporter.
func (*NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return &NullReporter{}
}

// New returns an event stamped with the current time.
func New(typ EventType, msg string, path ...string) Event {
	return Event{
		Path:      path,
		Type:      typ,
		Message:   msg,
		Timestamp: time.Now(),
	}
}
