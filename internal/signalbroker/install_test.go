// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"bytes"
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/interrupt"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestInstall_RelaysInterruptOnce(t *testing.T) {
	var (
		registered chan<- os.Signal
		stopped    bool
	)

	stubs := gostub.Stub(&notify, func(c chan<- os.Signal, sigs ...os.Signal) {
		assert.Equal(t, []os.Signal{syscall.SIGINT}, sigs)
		registered = c
	})
	stubs.Stub(&stop, func(c chan<- os.Signal) {
		assert.Equal(t, registered, c)
		stopped = true
	})

	defer stubs.Reset()

	state := interrupt.New(interrupt.WithGracePeriod(time.Hour))
	defer state.Reset()

	warn := &syncBuffer{}
	in := Install(context.Background(), state, warn)
	require.NotNil(t, registered)

	registered <- syscall.SIGINT

	require.Eventually(t, state.InterruptRequested, time.Second, 5*time.Millisecond)

	registered <- syscall.SIGINT
	registered <- syscall.SIGINT

	require.NoError(t, in.Restore())
	assert.True(t, stopped)
	assert.Equal(t, 1, bytes.Count([]byte(warn.String()), []byte("Interrupt received")))
	assert.Contains(t, warn.String(), "1h0m0s")
}

func TestInstall_RestoreTwice(t *testing.T) {
	stubSignals(t)

	in := Install(context.Background(), interrupt.New(), nil)

	require.NoError(t, in.Restore())
	assert.ErrorIs(t, in.Restore(), ErrAlreadyRestored)
}

func TestInstall_RealSignal(t *testing.T) {
	state := interrupt.New(interrupt.WithGracePeriod(time.Hour))
	defer state.Reset()

	in := Install(context.Background(), state, nil)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	require.Eventually(t, state.InterruptRequested, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, in.Restore())
}
