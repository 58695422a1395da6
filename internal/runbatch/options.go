// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/progress"
)

const (
	// DefaultHardTimeout bounds a single item.
	DefaultHardTimeout = 60 * time.Second
	// DefaultCleanupTimeout bounds the wait for a cancelled worker to finish its cleanup.
	DefaultCleanupTimeout = 5 * time.Second
)

// Spawner starts fn on a new worker. It exists so that spawn failures can be simulated.
type Spawner func(fn func()) error

func goSpawner(fn func()) error {
	go fn()
	return nil
}

type config struct {
	hardTimeout    time.Duration
	cleanupTimeout time.Duration
	spawn          Spawner
	reporter       progress.Reporter
	phrases        Phrases
	stateReady     bool
}

func newConfig(opts []Option) config {
	c := config{
		hardTimeout:    DefaultHardTimeout,
		cleanupTimeout: DefaultCleanupTimeout,
		spawn:          goSpawner,
		reporter:       progress.NewNullReporter(),
		phrases:        DefaultPhrases,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// Option configures a Dispatcher or an Orchestrator.
type Option func(*config)

// WithHardTimeout overrides DefaultHardTimeout. Non-positive values are ignored.
func WithHardTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.hardTimeout = d
		}
	}
}

// WithCleanupTimeout overrides DefaultCleanupTimeout. Non-positive values are ignored.
func WithCleanupTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.cleanupTimeout = d
		}
	}
}

// WithSpawner replaces the goroutine spawner.
func WithSpawner(s Spawner) Option {
	return func(c *config) {
		if s != nil {
			c.spawn = s
		}
	}
}

// WithReporter sends item events to r.
func WithReporter(r progress.Reporter) Option {
	return func(c *config) {
		if r != nil {
			c.reporter = r
		}
	}
}

// WithPhrases sets the wording of the final report.
func WithPhrases(p Phrases) Option {
	return func(c *config) {
		c.phrases = p
	}
}

// WithPreparedState stops Run from resetting the interrupt state. The caller resets it
// before it starts routing signals to it, so an interrupt that arrives in between is kept.
func WithPreparedState() Option {
	return func(c *config) {
		c.stateReady = true
	}
}
