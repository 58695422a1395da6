// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package coredump

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustDumps(t *testing.T, names ...string) []Dump {
	t.Helper()

	dumps := make([]Dump, 0, len(names))

	for _, n := range names {
		d, ok := ParseDaemonCore(n)
		if !ok {
			d, ok = ParseKernelCore(n)
		}

		require.True(t, ok, n)

		d.Path = "/cores/" + n
		dumps = append(dumps, d)
	}

	return dumps
}

func TestCopyRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  CopyRequest
		ok   bool
	}{
		{"tftp", CopyRequest{Daemon: "ops-fand", Protocol: TFTP, Host: "10.0.0.1"}, true},
		{"sftp", CopyRequest{Daemon: "kernel", Protocol: SFTP, User: "admin", Host: "backup.example", DestFile: "vmcore.tgz"}, true},
		{"sftp without user", CopyRequest{Daemon: "ops-fand", Protocol: SFTP, Host: "10.0.0.1"}, false},
		{"unknown protocol", CopyRequest{Daemon: "ops-fand", Protocol: "scp", Host: "10.0.0.1"}, false},
		{"bad host", CopyRequest{Daemon: "ops-fand", Protocol: TFTP, Host: "a b"}, false},
		{"bad instance", CopyRequest{Daemon: "ops-fand", Instance: "x1", Protocol: TFTP, Host: "h"}, false},
		{"bad file", CopyRequest{Daemon: "ops-fand", Instance: "1", Protocol: TFTP, Host: "h", DestFile: "../x"}, false},
		{"bad daemon", CopyRequest{Daemon: "ops;rm", Protocol: TFTP, Host: "h"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestCopyRequestSelect(t *testing.T) {
	dumps := mustDumps(t,
		"core.ops-fand.0.11.20160401.010203.xz",
		"core.ops-fand.1.6.20160402.010203.xz",
		"core.ops-lldpd.0.6.20160402.010203.xz",
		"vmcore.20160403.101112.tar.gz",
		"vmcore.20160404.101112.tar.gz",
	)

	r := &CopyRequest{Daemon: "ops-fand"}
	assert.Len(t, r.Select(dumps), 2)
	assert.Equal(t, "No coredump found for daemon ops-fand", r.NotFound())

	r.Instance = "1"
	got := r.Select(dumps)
	require.Len(t, got, 1)
	assert.Equal(t, "/cores/core.ops-fand.1.6.20160402.010203.xz", got[0].Path)
	assert.Equal(t, "No coredump found for daemon ops-fand with instance 1", r.NotFound())

	k := &CopyRequest{Daemon: KernelName}
	got = k.Select(dumps)
	require.Len(t, got, 1, "one kernel core at most")
	assert.True(t, got[0].Kernel())
	assert.Equal(t, "No coredump found for kernel", k.NotFound())

	assert.Empty(t, (&CopyRequest{Daemon: "ops-bgpd"}).Select(dumps))
}

func TestCopyRequestTransfers(t *testing.T) {
	dumps := mustDumps(t, "core.ops-fand.1.6.20160402.010203.xz")

	tftp := &CopyRequest{Daemon: "ops-fand", Protocol: TFTP, Host: "10.0.0.1"}
	items := tftp.Transfers("/usr/bin/tftp_noi.sh", dumps)
	require.Len(t, items, 1)
	assert.Equal(t, "core.ops-fand.1.6.20160402.010203.xz", items[0].Name)
	assert.Equal(t, []string{
		"/usr/bin/tftp_noi.sh", "10.0.0.1", "/cores/core.ops-fand.1.6.20160402.010203.xz", "core.ops-fand.1.6.20160402.010203.xz",
	}, items[0].Value.Argv)

	sftp := &CopyRequest{Daemon: "ops-fand", Instance: "1", Protocol: SFTP, User: "admin", Host: "h", DestFile: "fand.xz"}
	items = sftp.Transfers("/usr/bin/sftp_noi.sh", dumps)
	require.Len(t, items, 1)
	assert.Equal(t, []string{
		"/usr/bin/sftp_noi.sh", "admin", "h", "/cores/core.ops-fand.1.6.20160402.010203.xz", "fand.xz",
	}, items[0].Value.Argv)
}

func TestCheckScript(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/tftp_noi.sh", nil, 0o755))
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/sftp_noi.sh", nil, 0o644))
	require.NoError(t, fs.MkdirAll("/usr/bin/dir", 0o755))

	require.NoError(t, CheckScript(fs, "/usr/bin/tftp_noi.sh"))
	require.ErrorIs(t, CheckScript(fs, "/usr/bin/sftp_noi.sh"), ErrUtility)
	require.ErrorIs(t, CheckScript(fs, "/usr/bin/dir"), ErrUtility)
	require.ErrorIs(t, CheckScript(fs, "/usr/bin/missing"), ErrUtility)
}

func TestCopyActionRunsScript(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := filepath.Join(dir, "tftp")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > "+argsFile+"\necho sent\n"), 0o755))

	req := &CopyRequest{Daemon: "ops-fand", Protocol: TFTP, Host: "10.0.0.1"}
	items := req.Transfers(script, mustDumps(t, "core.ops-fand.1.6.20160402.010203.xz"))

	var out bytes.Buffer

	err := CopyAction()(context.Background(), items[0], &out)
	require.NoError(t, err)
	assert.Equal(t, "sent\n", out.String())

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1 /cores/core.ops-fand.1.6.20160402.010203.xz core.ops-fand.1.6.20160402.010203.xz\n", string(args))
}

func TestCopyActionFailure(t *testing.T) {
	script := filepath.Join(t.TempDir(), "tftp")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0o755))

	item := runbatch.WorkItem[Transfer]{
		Name:  "core",
		Value: Transfer{Source: "/cores/core", Argv: []string{script, "h", "/cores/core", "core"}},
	}

	var out bytes.Buffer

	err := CopyAction()(context.Background(), item, &out)
	require.Error(t, err)
	assert.Equal(t, "Command "+script+" failed to execute\n", out.String())
}
