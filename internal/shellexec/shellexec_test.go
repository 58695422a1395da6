// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package shellexec

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/progress"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunSuccess(t *testing.T) {
	var out strings.Builder

	err := Run(context.Background(), Command{Line: "echo hello; echo oops >&2"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello\noops\n", out.String())
}

func TestRunEnvAndDir(t *testing.T) {
	var out strings.Builder

	dir := t.TempDir()

	err := Run(context.Background(), Command{
		Line: `echo "$FOO"; pwd`,
		Env:  map[string]string{"FOO": "BAR"},
		Dir:  dir,
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "BAR\n")
	assert.Contains(t, out.String(), dir)
}

func TestRunExitCode(t *testing.T) {
	err := Run(context.Background(), Command{Line: "exit 3"}, nil)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.EqualError(t, err, "exit status 3")
}

func TestRunCustomShell(t *testing.T) {
	var out strings.Builder

	err := Run(context.Background(), Command{Line: "print-me", Shell: []string{"/bin/echo", "-n"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "print-me", out.String())
}

func TestRunShellNotFound(t *testing.T) {
	err := Run(context.Background(), Command{Line: "x", Shell: []string{"/not/a/real/shell"}}, nil)
	require.ErrorIs(t, err, ErrCouldNotStartProcess)
}

func TestRunEmpty(t *testing.T) {
	require.ErrorIs(t, Run(context.Background(), Command{}, nil), ErrEmptyCommand)
}

func TestRunContextKillsProcessGroup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Run(ctx, Command{Line: "sleep 5; echo done"}, nil)

	require.ErrorIs(t, err, ErrProcessKilled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunOverflow(t *testing.T) {
	var out strings.Builder

	err := Run(context.Background(), Command{Line: "printf 0123456789"}, &out, WithMaxOutput(4))
	require.ErrorIs(t, err, ErrBufferOverflow)
	assert.Equal(t, "01234", out.String())
}

func TestRunReportsOutputLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := progress.NewChannelReporter(ctx, 16)

	err := Run(ctx, Command{Line: "echo one; echo two"}, nil, WithReporter(rep, "show lldp"))
	require.NoError(t, err)
	rep.Close()

	var lines []string

	for ev := range rep.Events() {
		assert.Equal(t, progress.EventOutput, ev.Type)
		assert.Equal(t, []string{"show lldp"}, ev.Path)
		lines = append(lines, ev.Data.OutputLine)
	}

	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestRunScopeCloseUnblocksRead(t *testing.T) {
	scope := runbatch.NewScope()
	ctx := runbatch.WithScope(context.Background(), scope)

	errCh := make(chan error, 1)

	go func() {
		errCh <- Run(ctx, Command{Line: "sleep 5"}, nil)
	}()

	// Give the command time to start before the dispatcher style forced close.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, scope.Close())

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after the scope was closed")
	}
}

func TestRunClosedScope(t *testing.T) {
	scope := runbatch.NewScope()
	require.NoError(t, scope.Close())

	err := Run(runbatch.WithScope(context.Background(), scope), Command{Line: "echo x"}, nil)
	require.ErrorIs(t, err, runbatch.ErrScopeClosed)
}
