// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics records collection outcomes in a Prometheus registry and writes them
// in the node_exporter textfile format, so a switch's monitoring agent can pick them up
// after each run.
package metrics

import (
	"errors"

	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrWriteTextfile is returned when the textfile could not be written.
var ErrWriteTextfile = errors.New("could not write metrics textfile")

const namespace = "supportctl"

// Recorder owns a private registry so that repeated runs in one process (the interactive
// shell) accumulate into the same series.
type Recorder struct {
	reg *prometheus.Registry

	items    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastRun  *prometheus.GaugeVec
	abandon  *prometheus.CounterVec
}

// New returns a Recorder with all series registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		// items counts dispatched items.
		// Labels: collection, outcome (success, failed, timed-out, user-cancelled)
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Items dispatched by outcome",
		}, []string{"collection", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time spent on a single item",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"collection"}),
		lastRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run of a collection finished",
		}, []string{"collection"}),
		abandon: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_abandoned_total",
			Help:      "Workers that ignored cancellation and were left running",
		}, []string{"collection"}),
	}
}

// Observe adds a finished run to the series.
func (r *Recorder) Observe(report *runbatch.Report) {
	if report == nil {
		return
	}

	for _, res := range report.Results {
		r.items.WithLabelValues(report.Collection, res.Outcome.String()).Inc()
		r.duration.WithLabelValues(report.Collection).Observe(res.Duration.Seconds())

		if res.Abandoned {
			r.abandon.WithLabelValues(report.Collection).Inc()
		}
	}

	r.lastRun.WithLabelValues(report.Collection).Set(float64(report.Finished.Unix()))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile atomically writes the registry to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return errors.Join(ErrWriteTextfile, err)
	}

	return nil
}
