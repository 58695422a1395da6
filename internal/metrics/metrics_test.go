// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *runbatch.Report {
	return &runbatch.Report{
		Collection: "diag-dump lldp",
		Finished:   time.Unix(1700000000, 0),
		Results: []runbatch.ItemResult{
			{Name: "a", Outcome: runbatch.OutcomeSuccess, Duration: 10 * time.Millisecond},
			{Name: "b", Outcome: runbatch.OutcomeTimedOut, Duration: time.Minute, Abandoned: true},
			{Name: "c", Outcome: runbatch.OutcomeSuccess, Duration: 20 * time.Millisecond},
		},
	}
}

func TestObserve(t *testing.T) {
	r := New()
	r.Observe(sampleReport())
	r.Observe(nil)

	assert.InDelta(t, 2, testutil.ToFloat64(r.items.WithLabelValues("diag-dump lldp", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.items.WithLabelValues("diag-dump lldp", "timed-out")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.abandon.WithLabelValues("diag-dump lldp")), 0)
	assert.InDelta(t, 1700000000, testutil.ToFloat64(r.lastRun.WithLabelValues("diag-dump lldp")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Observe(sampleReport())

	path := filepath.Join(t.TempDir(), "supportctl.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `supportctl_items_total{collection="diag-dump lldp",outcome="success"} 2`)
	assert.Contains(t, string(b), "supportctl_item_duration_seconds_bucket")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.ErrorIs(t, err, ErrWriteTextfile)
}
