// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
)

var (
	// ErrScopeClosed is returned by Acquire when the item has already been cancelled.
	ErrScopeClosed = errors.New("cleanup scope is closed")
	// ErrNoScope is returned by Acquire when the context was not created by a Dispatcher.
	ErrNoScope = errors.New("no cleanup scope in context")
)

type scopeKey struct{}

// Scope owns the resources opened by one dispatched action.
// Closing the scope closes every registered resource in reverse order.
type Scope struct {
	mu        sync.Mutex
	closed    bool
	resources []io.Closer
	err       error
}

// NewScope returns an open, empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Register hands c to the scope. If the scope is already closed, c is closed immediately
// and ErrScopeClosed is returned.
func (s *Scope) Register(c io.Closer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.Join(ErrScopeClosed, c.Close())
	}

	s.resources = append(s.resources, c)

	return nil
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Close closes all registered resources. Later calls return the first call's error.
func (s *Scope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.err
	}

	s.closed = true

	var errs []error
	for _, r := range slices.Backward(s.resources) {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.resources = nil
	s.err = errors.Join(errs...)

	return s.err
}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the scope carried by ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// Acquire opens a resource and registers it with the scope in ctx as one step, so a
// resource is never held outside the scope. If the item is cancelled while open is
// running, the freshly opened resource is closed and ErrScopeClosed is returned.
func Acquire[R io.Closer](ctx context.Context, open func(context.Context) (R, error)) (R, error) {
	var zero R

	s := ScopeFrom(ctx)
	if s == nil {
		return zero, ErrNoScope
	}

	if s.Closed() {
		return zero, ErrScopeClosed
	}

	r, err := open(ctx)
	if err != nil {
		return zero, err
	}

	if err := s.Register(r); err != nil {
		return zero, err
	}

	return r, nil
}
