// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package shellexec runs one command line through a shell and streams its combined output.
//
// The pipe and the child process are opened through runbatch.Acquire, so a dispatcher that
// abandons the command closes the pipe and kills the process group even when the command
// ignores its context.
package shellexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/teereader"
	"golang.org/x/sys/unix"
)

const defaultMaxOutput = 8 * 1024 * 1024 // 8MB

// DefaultShell runs the command line with the POSIX shell.
var DefaultShell = []string{"/bin/sh", "-c"}

var (
	// ErrBufferOverflow is returned when the output exceeds the maximum size.
	ErrBufferOverflow = errors.New("output exceeds maximum size")
	// ErrCouldNotStartProcess is returned when the shell could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the output pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrFailedToReadBuffer is returned when the output pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrProcessKilled is returned when the context ended before the command did.
	ErrProcessKilled = errors.New("process killed")
	// ErrEmptyCommand is returned for a blank command line or shell.
	ErrEmptyCommand = errors.New("empty command")
)

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code int
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Command is a command line and the shell that interprets it.
type Command struct {
	Line  string
	Shell []string          // nil means DefaultShell
	Env   map[string]string // added to the current environment
	Dir   string
}

type config struct {
	reporter  progress.Reporter
	path      []string
	maxOutput int64
}

// Option configures Run.
type Option func(*config)

// WithReporter sends every output line to r as an EventOutput under path.
// An empty path reports under the command line.
func WithReporter(r progress.Reporter, path ...string) Option {
	return func(c *config) {
		if r != nil {
			c.reporter = r
			c.path = path
		}
	}
}

// WithMaxOutput limits how many bytes are copied to the output.
func WithMaxOutput(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxOutput = n
		}
	}
}

// Run executes cmd and copies its stdout and stderr to out until the command exits.
// A non-zero exit status is returned as *ExitError.
func Run(ctx context.Context, cmd Command, out io.Writer, opts ...Option) error {
	cfg := config{
		reporter:  progress.NewNullReporter(),
		maxOutput: defaultMaxOutput,
	}
	for _, o := range opts {
		o(&cfg)
	}

	if len(cfg.path) == 0 {
		cfg.path = []string{cmd.Line}
	}

	logger := ctxlog.Logger(ctx).With("command", cmd.Line)

	if runbatch.ScopeFrom(ctx) == nil {
		s := runbatch.NewScope()
		ctx = runbatch.WithScope(ctx, s)

		defer s.Close() //nolint:errcheck
	}

	shell := cmd.Shell
	if len(shell) == 0 {
		shell = DefaultShell
	}

	if cmd.Line == "" || shell[0] == "" {
		return ErrEmptyCommand
	}

	path, err := exec.LookPath(shell[0])
	if err != nil {
		return errors.Join(ErrCouldNotStartProcess, err)
	}

	p, err := runbatch.Acquire(ctx, openPipe)
	if err != nil {
		return err
	}

	env := os.Environ()
	for k, v := range cmd.Env {
		env = append(env, k+"="+v)
	}

	args := slices.Concat(shell, []string{cmd.Line})

	logger.Debug("starting process", "shell", shell, "dir", cmd.Dir)

	ps, err := runbatch.Acquire(ctx, func(context.Context) (*process, error) {
		proc, err := os.StartProcess(path, args, &os.ProcAttr{
			Dir:   cmd.Dir,
			Env:   env,
			Files: []*os.File{p.stdin, p.w, p.w},
			Sys:   &syscall.SysProcAttr{Setpgid: true},
		})
		if err != nil {
			return nil, errors.Join(ErrCouldNotStartProcess, err)
		}

		return &process{ps: proc}, nil
	})

	// The child owns its copies of the write end and stdin now.
	p.closeChildEnds()

	if err != nil {
		return err
	}

	logger.Debug("process started", "pid", ps.ps.Pid)

	done := make(chan struct{})
	killed := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("context done, killing process")
			ps.kill(ctx)
			close(killed)
		case <-done:
		}
	}()

	lw := teereader.NewLastLineWriter(out, teereader.WithLineFunc(func(line string) {
		cfg.reporter.Report(progress.Event{
			Path:      cfg.path,
			Type:      progress.EventOutput,
			Message:   line,
			Timestamp: time.Now(),
			Data:      progress.EventData{OutputLine: line},
		})
	}))

	n, copyErr := io.Copy(lw, io.LimitReader(p.r, cfg.maxOutput+1))
	lw.Flush()

	var overflow error
	if n > cfg.maxOutput {
		logger.Debug("output overflow, killing process", "bytesRead", n, "maxBytes", cfg.maxOutput)
		overflow = fmt.Errorf("%w of %d bytes", ErrBufferOverflow, cfg.maxOutput)
		ps.kill(ctx)
	}

	state, waitErr := ps.ps.Wait()
	close(done)

	logger.Debug("process finished", "exitCode", state.ExitCode(), "bytes", n)

	select {
	case <-killed:
		return errors.Join(ErrProcessKilled, context.Cause(ctx))
	default:
	}

	if ctx.Err() != nil {
		return errors.Join(ErrProcessKilled, context.Cause(ctx))
	}

	switch {
	case waitErr != nil:
		return errors.Join(waitErr, overflow)
	case overflow != nil:
		return overflow
	case copyErr != nil:
		return errors.Join(ErrFailedToReadBuffer, copyErr)
	case state != nil && state.ExitCode() != 0:
		return &ExitError{Code: state.ExitCode()}
	}

	return nil
}

// pipe carries the combined output of the child and its stdin.
type pipe struct {
	r, w  *os.File
	stdin *os.File
	once  sync.Once
}

func openPipe(context.Context) (*pipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	stdin, err := os.Open(os.DevNull)
	if err != nil {
		_ = r.Close()
		_ = w.Close()

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	return &pipe{r: r, w: w, stdin: stdin}, nil
}

func (p *pipe) closeChildEnds() {
	p.once.Do(func() {
		_ = p.w.Close()
		_ = p.stdin.Close()
	})
}

// Close closes both ends, which makes a blocked read return.
func (p *pipe) Close() error {
	p.closeChildEnds()
	if err := p.r.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}

	return nil
}

// process kills the child's process group when closed.
type process struct {
	ps *os.Process
}

func (p *process) kill(ctx context.Context) {
	if err := unix.Kill(-p.ps.Pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		ctxlog.Logger(ctx).Debug("process group kill error", "pid", p.ps.Pid, "error", err)
	}

	if err := p.ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", p.ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process kill error", "pid", p.ps.Pid, "error", err)

		return
	}

	ctxlog.Logger(ctx).Info("process killed", "pid", p.ps.Pid)
}

// Close implements io.Closer.
func (p *process) Close() error {
	p.kill(context.Background())
	return nil
}
