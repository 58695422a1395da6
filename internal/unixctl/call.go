// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package unixctl

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/spf13/afero"
)

// Call resolves daemon under rundir, connects and sends one request.
//
// The connection is registered with the dispatch scope carried by ctx, so it is closed
// when the item is cancelled or finishes. Without a scope the connection is closed
// before Call returns. Any failure to reach the daemon wraps ErrConnect.
func Call(ctx context.Context, fs afero.Fs, rundir, daemon, method string, params []string, opts ...DialOption) (string, error) {
	path, err := Resolve(fs, rundir, daemon)
	if err != nil {
		return "", errors.Join(ErrConnect, err)
	}

	if runbatch.ScopeFrom(ctx) == nil {
		s := runbatch.NewScope()
		ctx = runbatch.WithScope(ctx, s)

		defer s.Close() //nolint:errcheck
	}

	c, err := runbatch.Acquire(ctx, func(ctx context.Context) (*Client, error) {
		return Dial(ctx, path, opts...)
	})
	if err != nil {
		return "", err
	}

	return c.Transact(ctx, method, params...)
}
