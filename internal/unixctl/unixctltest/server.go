// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package unixctltest provides an in-process daemon control socket for tests.
package unixctltest

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// HandlerFunc answers one method. A non-nil error is sent as the error member.
// ctx is cancelled when the server closes.
type HandlerFunc func(ctx context.Context, params []string) (string, error)

// Server is a fake daemon listening on a Unix socket.
type Server struct {
	Path string

	ln       net.Listener
	handlers map[string]HandlerFunc
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	requests []Request
}

// Request is a request received by the server.
type Request struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     any      `json:"id"`
}

type response struct {
	Result *string `json:"result"`
	Error  *string `json:"error"`
	ID     any     `json:"id"`
}

// NewServer listens on dir/name and serves handlers until the test ends.
func NewServer(tb testing.TB, dir, name string, handlers map[string]HandlerFunc) *Server {
	tb.Helper()

	path := filepath.Join(dir, name)

	ln, err := net.Listen("unix", path)
	if err != nil {
		tb.Fatalf("listen on %s: %v", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		Path:     path,
		ln:       ln,
		handlers: handlers,
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}

	s.wg.Add(1)

	go s.accept()

	tb.Cleanup(s.Close)

	return s
}

func (s *Server) accept() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)

		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()

		_ = conn.Close()
	}()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		resp := response{ID: req.ID}

		h, ok := s.handlers[req.Method]
		if !ok {
			msg := "\"" + req.Method + "\" is not a valid command"
			resp.Error = &msg
		} else {
			res, err := h(s.ctx, req.Params)
			if err != nil {
				msg := err.Error()
				resp.Error = &msg
			} else {
				resp.Result = &res
			}
		}

		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)

	return out
}

// Close stops the listener, cancels handlers and closes open connections.
func (s *Server) Close() {
	s.cancel()
	_ = s.ln.Close()

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}
