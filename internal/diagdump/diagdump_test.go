// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package diagdump

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/interrupt"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/unixctl/unixctltest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// daemon starts a fake daemon called name with the given pid in rundir.
func daemon(t *testing.T, rundir, name, pid string, handlers map[string]unixctltest.HandlerFunc) *unixctltest.Server {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(rundir, name+".pid"), []byte(pid+"\n"), 0o644))

	return unixctltest.NewServer(t, rundir, name+"."+pid+".ctl", handlers)
}

func echoHandlers(reply string) map[string]unixctltest.HandlerFunc {
	return map[string]unixctltest.HandlerFunc{
		"dumpdiagbasic": func(_ context.Context, params []string) (string, error) {
			return reply + " " + strings.Join(params, ","), nil
		},
		"dumpdiagadvanced": func(context.Context, []string) (string, error) {
			return reply + " advanced", nil
		},
	}
}

func run(t *testing.T, c *Collector, feature catalog.Feature, level Level, sink *strings.Builder, file *strings.Builder) *runbatch.Report {
	t.Helper()

	var action runbatch.Action[Request]
	if file != nil {
		action = c.Action(file)
	} else {
		action = c.Action(nil)
	}

	o := runbatch.NewOrchestrator[Request](Collection, interrupt.New(), sink, runbatch.WithPhrases(Phrases(feature.Name)))

	return o.Run(context.Background(), Items(feature, level), action)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("Basic")
	require.NoError(t, err)
	assert.Equal(t, LevelBasic, l)
	assert.Equal(t, "dumpdiagbasic", l.Method())
	assert.Equal(t, "dumpdiagadvanced", LevelAdvanced.Method())

	_, err = ParseLevel("full")
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func TestList(t *testing.T) {
	var out strings.Builder

	require.NoError(t, List(&out, &catalog.FeatureMapping{Features: []catalog.Feature{
		{Name: "lldp", Desc: "Link Layer Discovery Protocol"},
		{Name: "fand", Desc: "Fan daemon"},
	}}))

	assert.Equal(t,
		"Diagnostic Dump Supported Features List\nlldp\t\t\tLink Layer Discovery Protocol\nfand\t\t\tFan daemon\n",
		out.String())
}

func TestBasicDumpToTerminal(t *testing.T) {
	rundir := t.TempDir()
	srv := daemon(t, rundir, "ops-lldpd", "42", echoHandlers("lldp state"))

	var sink strings.Builder

	feature := catalog.Feature{Name: "lldp", Daemons: catalog.StringList{"ops-lldpd"}}
	report := run(t, &Collector{RunDir: rundir, Fs: afero.NewOsFs()}, feature, LevelBasic, &sink, nil)

	require.True(t, report.Success())
	assert.Equal(t, "Diagnostic dump captured successfully for feature lldp", report.Summary())
	assert.Equal(t, "Diagnostic dump for daemon ops-lldpd\nlldp state basic,lldp\n", sink.String())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "dumpdiagbasic", reqs[0].Method)
	assert.Equal(t, []string{"basic", "lldp"}, reqs[0].Params)
}

func TestDumpToFile(t *testing.T) {
	rundir := t.TempDir()
	daemon(t, rundir, "ops-fand", "7", echoHandlers("fan"))
	daemon(t, rundir, "ops-sysd", "8", echoHandlers("sys"))

	var sink, file strings.Builder

	feature := catalog.Feature{Name: "fan", Daemons: catalog.StringList{"ops-fand", "ops-sysd"}}
	report := run(t, &Collector{RunDir: rundir, Fs: afero.NewOsFs()}, feature, LevelAdvanced, &sink, &file)

	require.True(t, report.Success())
	assert.Empty(t, sink.String())
	assert.Equal(t, "fan advanced\nsys advanced\n", file.String())
}

func TestAdvancedWithoutFile(t *testing.T) {
	rundir := t.TempDir()
	daemon(t, rundir, "ops-fand", "7", echoHandlers("fan"))

	var sink strings.Builder

	feature := catalog.Feature{Name: "fan", Daemons: catalog.StringList{"ops-fand"}}
	report := run(t, &Collector{RunDir: rundir, Fs: afero.NewOsFs()}, feature, LevelAdvanced, &sink, nil)

	require.Len(t, report.Results, 1)
	require.ErrorIs(t, report.Results[0].Err, ErrFileRequired)
}

func TestConnectFailureContinues(t *testing.T) {
	rundir := t.TempDir()
	daemon(t, rundir, "ops-sysd", "8", echoHandlers("sys"))

	var sink strings.Builder

	feature := catalog.Feature{Name: "fan", Daemons: catalog.StringList{"ops-fand", "ops-sysd"}}
	report := run(t, &Collector{RunDir: rundir, Fs: afero.NewOsFs()}, feature, LevelBasic, &sink, nil)

	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, "Diagnostic dump failed for 1 daemon", report.Summary())
	assert.Contains(t, sink.String(), "failed to connect daemon ops-fand\n")
	assert.Contains(t, sink.String(), "Diagnostic dump for daemon ops-sysd\n")
}

func TestRemoteErrorFails(t *testing.T) {
	rundir := t.TempDir()
	daemon(t, rundir, "ops-lldpd", "42", map[string]unixctltest.HandlerFunc{
		"dumpdiagbasic": func(context.Context, []string) (string, error) {
			return "", errors.New("not supported")
		},
	})

	var sink strings.Builder

	feature := catalog.Feature{Name: "lldp", Daemons: catalog.StringList{"ops-lldpd"}}
	report := run(t, &Collector{RunDir: rundir, Fs: afero.NewOsFs()}, feature, LevelBasic, &sink, nil)

	assert.False(t, report.Success())
	assert.Empty(t, sink.String())
}

func TestFilePath(t *testing.T) {
	p, err := FilePath("", "lldp.txt")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ops-diag/lldp.txt", p)

	p, err = FilePath("/d", "sub/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "/d/sub/x.txt", p)

	for _, bad := range []string{"", "/etc/passwd", "..", "../x", "a/../../x"} {
		_, err := FilePath("/d", bad)
		require.ErrorIs(t, err, ErrInvalidFileName, bad)
	}
}

func TestOpenFileAppends(t *testing.T) {
	fs := afero.NewMemMapFs()

	for _, s := range []string{"one\n", "two\n"} {
		f, err := OpenFile(fs, "/tmp/ops-diag", "lldp.txt")
		require.NoError(t, err)
		_, err = f.WriteString(s)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	b, err := afero.ReadFile(fs, "/tmp/ops-diag/lldp.txt")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(b))
}

func TestHungDaemonTimesOut(t *testing.T) {
	rundir := t.TempDir()
	daemon(t, rundir, "ops-hungd", "7", map[string]unixctltest.HandlerFunc{
		"dumpdiagbasic": func(ctx context.Context, _ []string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})
	daemon(t, rundir, "ops-lldpd", "42", echoHandlers("lldp state"))

	feature := catalog.Feature{Name: "lldp", Daemons: catalog.StringList{"ops-lldpd", "ops-hungd", "ops-lldpd"}}
	c := &Collector{RunDir: rundir, Fs: afero.NewOsFs()}

	for i := range 20 {
		var sink strings.Builder

		o := runbatch.NewOrchestrator[Request](Collection, interrupt.New(), &sink,
			runbatch.WithPhrases(Phrases(feature.Name)),
			runbatch.WithHardTimeout(20*time.Millisecond),
		)

		report := o.Run(context.Background(), Items(feature, LevelBasic), c.Action(nil))

		var got []runbatch.Outcome
		for _, res := range report.Results {
			got = append(got, res.Outcome)
		}

		require.Equal(t, []runbatch.Outcome{runbatch.OutcomeSuccess, runbatch.OutcomeTimedOut, runbatch.OutcomeSuccess}, got, "run %d", i)
		assert.Contains(t, sink.String(), "Daemon ops-hungd timed out\n")
		assert.NotContains(t, sink.String(), "failed to connect daemon ops-hungd")
		assert.Equal(t, "Diagnostic dump failed for 1 daemon", report.Summary())
	}
}
