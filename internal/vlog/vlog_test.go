// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package vlog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

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

const listReply = "                 console    syslog    file\n" +
	"                 -------    ------    ------\n" +
	"backtrace          OFF        ERR       INFO\n" +
	"bridge             OFF        DBG       INFO\n"

func TestParseList(t *testing.T) {
	lv, err := ParseList(listReply)
	require.NoError(t, err)
	assert.Equal(t, Levels{Syslog: "ERR", File: "INFO"}, lv)

	_, err = ParseList("")
	require.ErrorIs(t, err, ErrMalformedReply)

	_, err = ParseList("a b\nx y z\n")
	require.ErrorIs(t, err, ErrMalformedReply)
}

func TestParseSetting(t *testing.T) {
	cases := []struct {
		dest, level string
		want        string
		err         error
	}{
		{"syslog", "dbg", "syslog:dbg", nil},
		{"FILE", "Off", "file:off", nil},
		{"all", "info", "any:info", nil},
		{"sys", "w", "syslog:warn", nil},
		{"console", "info", "", ErrInvalidDestination},
		{"", "info", "", ErrInvalidDestination},
		{"file", "verbose", "", ErrInvalidLevel},
	}

	for _, tc := range cases {
		s, err := ParseSetting(tc.dest, tc.level)
		if tc.err != nil {
			require.ErrorIs(t, err, tc.err, "%s %s", tc.dest, tc.level)
			continue
		}

		require.NoError(t, err)
		assert.Equal(t, tc.want, s.String())
	}

	assert.EqualError(t, ErrInvalidLevel, "Invalid log level")
}

func daemon(t *testing.T, rundir, name, pid string, handlers map[string]unixctltest.HandlerFunc) *unixctltest.Server {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(rundir, name+".pid"), []byte(pid), 0o644))

	return unixctltest.NewServer(t, rundir, name+"."+pid+".ctl", handlers)
}

func listing(reply string) map[string]unixctltest.HandlerFunc {
	return map[string]unixctltest.HandlerFunc{
		"vlog/list": func(context.Context, []string) (string, error) { return reply, nil },
		"vlog/set": func(_ context.Context, params []string) (string, error) {
			if len(params) != 1 {
				return "", errors.New("expected one argument")
			}

			return "", nil
		},
	}
}

func run(t *testing.T, items []runbatch.WorkItem[Target], action runbatch.Action[Target]) (*runbatch.Report, string) {
	t.Helper()

	var out strings.Builder

	report := runbatch.NewOrchestrator[Target](Collection, interrupt.New(), &out, runbatch.WithPhrases(Phrases)).
		Run(context.Background(), items, action)

	return report, out.String()
}

func TestShowFeatures(t *testing.T) {
	rundir := t.TempDir()
	daemon(t, rundir, "ops-fand", "10", listing(listReply))
	daemon(t, rundir, "ops-sysd", "11", listing(strings.ReplaceAll(listReply, "ERR", "WARN")))

	c := &Client{RunDir: rundir, Fs: afero.NewOsFs()}
	items := FeatureTargets(catalog.Feature{Name: "fan", Daemons: catalog.StringList{"ops-fand", "ops-sysd"}})

	var header strings.Builder
	require.NoError(t, LayoutFeatures.WriteHeader(&header))
	assert.Contains(t, header.String(), "Feature         Daemon          Syslog     File\n")

	report, out := run(t, items, c.ShowAction(LayoutFeatures))
	require.True(t, report.Success())
	assert.Equal(t,
		"fan             ops-fand        ERR        INFO\n"+
			"                ops-sysd        WARN       INFO\n",
		out)
}

func TestShowDaemonUnreachable(t *testing.T) {
	c := &Client{RunDir: t.TempDir(), Fs: afero.NewOsFs()}

	report, out := run(t, DaemonTarget("ops-gone"), c.ShowAction(LayoutDaemon))
	assert.False(t, report.Success())
	assert.Equal(t, "Not able to communicate with daemon ops-gone\n", out)
	assert.Equal(t, "Vlog failed for 1 daemon", report.Summary())
}

func TestShowDaemon(t *testing.T) {
	rundir := t.TempDir()
	daemon(t, rundir, "ops-lldpd", "5", listing(listReply))

	c := &Client{RunDir: rundir, Fs: afero.NewOsFs()}

	report, out := run(t, DaemonTarget("ops-lldpd"), c.ShowAction(LayoutDaemon))
	require.True(t, report.Success())
	assert.Equal(t, "ops-lldpd           ERR        INFO\n", out)
}

func TestSet(t *testing.T) {
	rundir := t.TempDir()
	a := daemon(t, rundir, "ops-fand", "10", listing(listReply))
	b := daemon(t, rundir, "ops-sysd", "11", listing(listReply))

	c := &Client{RunDir: rundir, Fs: afero.NewOsFs()}
	s, err := ParseSetting("all", "dbg")
	require.NoError(t, err)

	report, out := run(t,
		FeatureTargets(catalog.Feature{Name: "fan", Daemons: catalog.StringList{"ops-fand", "ops-sysd"}}),
		c.SetAction(s))
	require.True(t, report.Success())
	assert.Empty(t, out)

	for _, srv := range []*unixctltest.Server{a, b} {
		reqs := srv.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "vlog/set", reqs[0].Method)
		assert.Equal(t, []string{"any:dbg"}, reqs[0].Params)
	}
}

func TestSetRemoteError(t *testing.T) {
	rundir := t.TempDir()
	daemon(t, rundir, "ops-fand", "10", map[string]unixctltest.HandlerFunc{
		"vlog/set": func(context.Context, []string) (string, error) { return "", errors.New("no such module") },
	})

	c := &Client{RunDir: rundir, Fs: afero.NewOsFs()}

	report, out := run(t, DaemonTarget("ops-fand"), c.SetAction(Setting{Destination: "file", Level: "off"}))
	assert.Equal(t, 1, report.Failed())
	assert.Empty(t, out)
}

func TestList(t *testing.T) {
	var out strings.Builder

	require.NoError(t, List(&out, &catalog.FeatureMapping{Features: []catalog.Feature{
		{Name: "lacp", Desc: "Link Aggregation Control Protocol"},
	}}))

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, strings.Repeat("=", 45), lines[0])
	assert.Equal(t, "Features          Description", lines[1])
	assert.Equal(t, "lacp              Link Aggregation Control Protocol", lines[3])
}
