// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func stubSignals(t *testing.T) {
	t.Helper()

	stubs := gostub.Stub(&notify, func(chan<- os.Signal, ...os.Signal) {})
	stubs.Stub(&stop, func(chan<- os.Signal) {})
	t.Cleanup(stubs.Reset)
}

func TestNew_DefaultSignals(t *testing.T) {
	var got []os.Signal

	stubs := gostub.Stub(&notify, func(_ chan<- os.Signal, sigs ...os.Signal) { got = sigs })
	defer stubs.Reset()

	ch := New(context.Background())
	assert.NotNil(t, ch)
	assert.Equal(t, []os.Signal{syscall.SIGTERM, syscall.SIGQUIT}, got)
}

func TestWatch_FirstSignalNoCancel(t *testing.T) {
	stubSignals(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, cancel)
	}()

	sigCh <- syscall.SIGTERM

	time.Sleep(50 * time.Millisecond)

	select {
	case <-ctx.Done():
		t.Fatal("context should not be cancelled after first signal")
	default:
	}

	close(sigCh)
	wg.Wait()
}

func TestWatch_SecondSignalCancels(t *testing.T) {
	stubSignals(t)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)

	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(ctx, sigCh, cancel)
	}()

	sigCh <- syscall.SIGTERM
	sigCh <- syscall.SIGTERM

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return")
	}

	assert.Error(t, ctx.Err())
}

func TestWatch_DifferentSignalsNoCancel(t *testing.T) {
	stubSignals(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)

	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(ctx, sigCh, cancel)
	}()

	sigCh <- syscall.SIGTERM
	sigCh <- syscall.SIGQUIT

	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, ctx.Err())

	cancel()
	<-done
}
