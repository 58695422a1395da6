// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
)

// RunFunc performs a run, reporting progress to r.
type RunFunc func(r progress.Reporter) *runbatch.Report

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
	mutex    sync.Mutex
}

// Reporter implements progress.Reporter and forwards events to the TUI.
type Reporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

var _ progress.Reporter = (*Reporter)(nil)

// NewReporter creates a reporter that sends events to program.
func NewReporter(program *tea.Program) *Reporter {
	return &Reporter{
		program: program,
	}
}

// Report implements progress.Reporter.
func (tr *Reporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(EventMsg{Event: event})
}

// Close implements progress.Reporter.
func (tr *Reporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	tr.closed = true
}

type runnerOptions struct {
	onInterrupt func()
	program     []tea.ProgramOption
}

// Option configures a Runner.
type Option func(*runnerOptions)

// WithInterrupt sets the function called when the user presses Ctrl-C during a run.
func WithInterrupt(fn func()) Option {
	return func(o *runnerOptions) {
		o.onInterrupt = fn
	}
}

// WithProgramOptions adds options to the bubbletea program, after the defaults.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(o *runnerOptions) {
		o.program = append(o.program, opts...)
	}
}

// NewRunner creates a new TUI runner.
func NewRunner(ctx context.Context, title string, opts ...Option) *Runner {
	var o runnerOptions
	for _, opt := range opts {
		opt(&o)
	}

	model := NewModel(title, o.onInterrupt)
	popts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, o.program...)
	program := tea.NewProgram(model, popts...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: NewReporter(program),
	}
}

// Reporter returns the progress reporter for this runner.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Run starts the TUI and calls fn in the background. Once fn returns, the TUI shows
// the summary and waits for the user to quit. The report is returned even when the
// TUI fails.
func (r *Runner) Run(ctx context.Context, fn RunFunc) (*runbatch.Report, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	resultChan := make(chan *runbatch.Report, 1)

	go func() {
		defer close(resultChan)
		resultChan <- fn(r.reporter)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var (
		report *runbatch.Report
		tuiErr error
	)

	select {
	case report = <-resultChan:
		r.program.Send(DoneMsg{Report: report})

		// Wait for the user to exit.
		tuiErr = <-tuiDone

		r.reporter.Close()

	case tuiErr = <-tuiDone:
		// The TUI went away first. The run still has to finish.
		r.reporter.Close()

		report = <-resultChan

	case <-ctx.Done():
		r.reporter.Close()
		r.program.Quit()

		report = <-resultChan

		<-tuiDone
	}

	return report, tuiErr
}
