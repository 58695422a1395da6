// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package unixctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/goccy/go-json"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
)

var (
	// ErrConnect is returned when the control socket cannot be reached.
	ErrConnect = errors.New("could not connect to control socket")
	// ErrProtocol is returned for malformed or mismatched replies.
	ErrProtocol = errors.New("unixctl protocol error")
	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("unixctl client closed")
)

// RemoteError is an error string returned by the daemon.
type RemoteError struct {
	Method  string
	Message string
}

// Error implements the error interface for RemoteError.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

type request struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     uint64   `json:"id"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
	ID     json.RawMessage `json:"id"`
}

// Client is a connection to one daemon. A Client serialises its transactions.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	enc    *json.Encoder
	dec    *json.Decoder
	nextID uint64
	closed bool
}

type dialConfig struct {
	maxElapsed time.Duration
	initial    time.Duration
	maxRetries uint64
}

// DialOption configures Dial.
type DialOption func(*dialConfig)

// WithRetry bounds connection retries by count and total elapsed time.
func WithRetry(maxRetries uint64, maxElapsed time.Duration) DialOption {
	return func(c *dialConfig) {
		c.maxRetries = maxRetries
		c.maxElapsed = maxElapsed
	}
}

// Dial connects to the control socket at path. A socket that does not exist yet or
// refuses connections is retried with exponential backoff until ctx ends or the retry
// budget is spent.
func Dial(ctx context.Context, path string, opts ...DialOption) (*Client, error) {
	cfg := dialConfig{
		maxElapsed: 2 * time.Second,
		initial:    50 * time.Millisecond,
		maxRetries: 5,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.initial
	exp.MaxElapsedTime = cfg.maxElapsed

	b := backoff.WithContext(backoff.WithMaxRetries(exp, cfg.maxRetries), ctx)

	var (
		conn   net.Conn
		dialer net.Dialer
	)

	op := func() error {
		c, err := dialer.DialContext(ctx, "unix", path)
		if err == nil {
			conn = c
			return nil
		}

		if retryable(err) {
			return err
		}

		return backoff.Permanent(err)
	}

	notify := func(err error, next time.Duration) {
		ctxlog.Debug(ctx, "control socket not ready, retrying", "path", path, "error", err, "next", next)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, errors.Join(ErrConnect, err)
	}

	return NewClient(conn), nil
}

func retryable(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.EAGAIN)
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}
}

// Transact sends method with params and waits for the reply.
// A non-null error member is returned as *RemoteError.
// The connection deadline is forced only once ctx has ended, so a failed read after a
// deadline always finds ctx done.
func (c *Client) Transact(ctx context.Context, method string, params ...string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}

	if params == nil {
		params = []string{}
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	c.nextID++
	id := c.nextID

	if err := c.enc.Encode(request{Method: method, Params: params, ID: id}); err != nil {
		return "", c.ctxErr(ctx, fmt.Errorf("sending %s: %w", method, err))
	}

	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		return "", c.ctxErr(ctx, fmt.Errorf("reading reply to %s: %w", method, err))
	}

	var gotID uint64
	if err := json.Unmarshal(resp.ID, &gotID); err != nil || gotID != id {
		return "", fmt.Errorf("%w: reply id %s does not match request id %d", ErrProtocol, string(resp.ID), id)
	}

	if msg, ok := rawString(resp.Error); ok {
		return "", &RemoteError{Method: method, Message: msg}
	}

	result, _ := rawString(resp.Result)

	return result, nil
}

func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := context.Cause(ctx); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}

	return err
}

// rawString decodes a JSON string, or returns the raw text for other non-null values.
func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	return string(raw), true
}

// Close closes the connection. It is safe to call more than once and concurrently with
// Transact, which then returns an error.
func (c *Client) Close() error {
	err := c.conn.Close()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err //nolint:wrapcheck
}
