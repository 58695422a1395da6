// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"time"
)

// Phrases holds the operator facing wording of a report.
type Phrases struct {
	Action         string // e.g. "Diagnostic dump"
	Success        string // full success line, e.g. "Diagnostic dump captured successfully for feature lldp"
	ItemNoun       string // singular, e.g. "daemon"
	ItemNounPlural string // plural, e.g. "daemons"
	Failure        string // format taking the count and the noun, e.g. "%d %s failed to execute"
}

// DefaultPhrases is used when no Phrases are configured.
var DefaultPhrases = Phrases{
	Action:         "Run",
	Success:        "Run completed successfully",
	ItemNoun:       "item",
	ItemNounPlural: "items",
}

// noun returns the singular or plural item noun for n.
func (p Phrases) noun(n int) string {
	if n == 1 {
		return p.ItemNoun
	}

	if p.ItemNounPlural == "" {
		return p.ItemNoun + "s"
	}

	return p.ItemNounPlural
}

// SuccessLine is printed when every attempted item succeeded.
func (p Phrases) SuccessLine() string {
	if p.Success != "" {
		return p.Success
	}

	return p.Action + " completed successfully"
}

// FailureLine is printed when n items did not succeed.
func (p Phrases) FailureLine(n int) string {
	if p.Failure != "" {
		return fmt.Sprintf(p.Failure, n, p.noun(n))
	}

	return fmt.Sprintf("%s failed for %d %s", p.Action, n, p.noun(n))
}

// CancelledLine replaces the tally when the operator interrupted the run.
func (p Phrases) CancelledLine() string {
	return p.Action + " terminated by user"
}

// TimedOutLine is printed for an item that hit the hard deadline.
func (p Phrases) TimedOutLine(name string) string {
	return fmt.Sprintf("%s %s timed out", capitalise(p.ItemNoun), name)
}

func capitalise(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}

	return string(s[0]-'a'+'A') + s[1:]
}

// RunState is the bookkeeping of one orchestrator run.
type RunState struct {
	Attempted          int
	Succeeded          int
	InterruptRequested bool
	GraceElapsed       bool
	DeadlineElapsed    bool // at least one item hit the hard deadline
	WorkerCancelled    bool // at least one worker was cancelled
}

// Report is the outcome of one orchestrator run.
type Report struct {
	RunState

	RunID         string
	Collection    string
	Results       []ItemResult
	UserCancelled bool
	Started       time.Time
	Finished      time.Time

	phrases Phrases
}

// Failed returns the number of attempted items that did not succeed, timeouts included.
func (r *Report) Failed() int {
	return r.Attempted - r.Succeeded
}

// TimedOut returns the number of items that hit the hard deadline.
func (r *Report) TimedOut() int {
	return r.count(OutcomeTimedOut)
}

// Abandoned returns the number of workers that were left running.
func (r *Report) Abandoned() int {
	n := 0

	for _, res := range r.Results {
		if res.Abandoned {
			n++
		}
	}

	return n
}

func (r *Report) count(o Outcome) int {
	n := 0

	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}

	return n
}

// Success reports whether every attempted item succeeded and the run was not cut short.
// A run with no items is a success.
func (r *Report) Success() bool {
	return !r.UserCancelled && r.Attempted == r.Succeeded
}

// Summary returns the final line shown to the operator.
func (r *Report) Summary() string {
	switch {
	case r.UserCancelled:
		return r.phrases.CancelledLine()
	case r.Attempted == r.Succeeded:
		return r.phrases.SuccessLine()
	default:
		return r.phrases.FailureLine(r.Failed())
	}
}

// WriteSummary writes Summary followed by a newline to w.
func (r *Report) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintln(w, r.Summary())
	return err //nolint:wrapcheck
}
