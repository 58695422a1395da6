// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package unixctl_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/unixctl"
	"github.com/matt-FFFFFF/supportctl/internal/unixctl/unixctltest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	rundir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rundir, "ops-fand.pid"), []byte("77\n"), 0o644))

	unixctltest.NewServer(t, rundir, "ops-fand.77.ctl", map[string]unixctltest.HandlerFunc{
		"vlog/list": func(context.Context, []string) (string, error) {
			return "levels", nil
		},
	})

	got, err := unixctl.Call(context.Background(), afero.NewOsFs(), rundir, "ops-fand", "vlog/list", nil)
	require.NoError(t, err)
	assert.Equal(t, "levels", got)
}

func TestCall_ScopeOwnsConnection(t *testing.T) {
	srv := newServer(t)

	scope := runbatch.NewScope()
	ctx := runbatch.WithScope(context.Background(), scope)

	_, err := unixctl.Call(ctx, afero.NewOsFs(), "", srv.Path, "dumpdiagbasic", []string{"basic"})
	require.NoError(t, err)
	assert.False(t, scope.Closed())
	require.NoError(t, scope.Close())
}

func TestCall_MissingPidFile(t *testing.T) {
	_, err := unixctl.Call(context.Background(), afero.NewMemMapFs(), "/run", "ops-nope", "vlog/list", nil)
	require.ErrorIs(t, err, unixctl.ErrConnect)
	require.ErrorIs(t, err, unixctl.ErrPidFile)
}
