// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package interrupt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
)

// DefaultGracePeriod is how long an in-flight item may keep running after the first interrupt.
const DefaultGracePeriod = 10 * time.Second

// Lifecycle states.
const (
	StateIdle     = "idle"
	StateArmed    = "armed"
	StateExpired  = "expired"
	StateDisarmed = "disarmed"
)

const (
	eventInterrupt = "interrupt"
	eventExpire    = "expire"
	eventDisarm    = "disarm"
	eventReset     = "reset"
)

// State is the cancellation state of one orchestrator run.
// All methods are safe for concurrent use.
type State struct {
	interruptRequested atomic.Bool
	graceArmed         atomic.Bool
	graceElapsed       atomic.Bool

	grace time.Duration

	mu      sync.Mutex
	machine *fsm.FSM
	timer   *time.Timer
	elapsed chan struct{}
	gen     uint64
	onArm   func()
}

// Option configures a State.
type Option func(*State)

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(s *State) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithOnArm registers a hook that runs once each time the grace timer is armed.
func WithOnArm(fn func()) Option {
	return func(s *State) {
		s.onArm = fn
	}
}

// New returns an idle State.
func New(opts ...Option) *State {
	s := &State{
		grace:   DefaultGracePeriod,
		machine: newMachine(),
		elapsed: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func newMachine() *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventInterrupt, Src: []string{StateIdle}, Dst: StateArmed},
			{Name: eventExpire, Src: []string{StateArmed}, Dst: StateExpired},
			{Name: eventDisarm, Src: []string{StateArmed}, Dst: StateDisarmed},
			{Name: eventReset, Src: []string{StateIdle, StateArmed, StateExpired, StateDisarmed}, Dst: StateIdle},
		},
		fsm.Callbacks{},
	)
}

// GracePeriod returns the configured grace period.
func (s *State) GracePeriod() time.Duration {
	return s.grace
}

// Current returns the lifecycle state name.
func (s *State) Current() string {
	return s.machine.Current()
}

// Reset returns the state to idle, stops any pending grace timer and replaces the
// GraceElapsed channel. It is called at the start of every run.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.gen++
	s.interruptRequested.Store(false)
	s.graceArmed.Store(false)
	s.graceElapsed.Store(false)
	s.elapsed = make(chan struct{})

	_ = fire(s.machine, eventReset)
}

// RequestInterrupt records an operator interrupt. The first call of a run arms the grace
// timer and returns true; later calls return false and change nothing.
func (s *State) RequestInterrupt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fire(s.machine, eventInterrupt); err != nil {
		return false
	}

	s.interruptRequested.Store(true)
	s.graceArmed.Store(true)

	gen := s.gen
	s.timer = time.AfterFunc(s.grace, func() { s.expire(gen) })

	if s.onArm != nil {
		s.onArm()
	}

	return true
}

func (s *State) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}

	if err := fire(s.machine, eventExpire); err != nil {
		return
	}

	s.graceArmed.Store(false)
	s.graceElapsed.Store(true)
	close(s.elapsed)
}

// DisarmGrace stops an armed grace timer. It is a no-op in any other state.
func (s *State) DisarmGrace() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fire(s.machine, eventDisarm); err != nil {
		return
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.graceArmed.Store(false)
}

// GraceElapsed returns a channel that is closed when the grace timer of the current run fires.
func (s *State) GraceElapsed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.elapsed
}

// InterruptRequested reports whether an interrupt was received during the current run.
func (s *State) InterruptRequested() bool {
	return s.interruptRequested.Load()
}

// GraceArmed reports whether the grace timer is running.
func (s *State) GraceArmed() bool {
	return s.graceArmed.Load()
}

// GraceExpired reports whether the grace timer of the current run has fired.
func (s *State) GraceExpired() bool {
	return s.graceElapsed.Load()
}

// fire runs a transition. A reset from idle is not an error.
func fire(m *fsm.FSM, event string) error {
	err := m.Event(context.Background(), event)

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}

	return err
}
