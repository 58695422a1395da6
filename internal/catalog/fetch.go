// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/spf13/afero"
)

var (
	// ErrFetchCatalog is returned when a remote catalog cannot be downloaded.
	ErrFetchCatalog = errors.New("failed to fetch catalog")
	// ErrEmptyCatalog is returned when a fetched directory holds no catalog files.
	ErrEmptyCatalog = errors.New("no catalog files found")
)

// fetchDir downloads the go-getter source src into a temporary directory, copies the
// known catalog files into an in-memory filesystem and removes the download.
func fetchDir(ctx context.Context, src string) (afero.Fs, error) {
	tmpDir, err := os.MkdirTemp("", "supportctl-catalog-*")
	if err != nil {
		return nil, errors.Join(ErrFetchCatalog, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrFetchCatalog, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     src,
		Dst:     filepath.Join(tmpDir, "c"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
		Copy:    true,
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrFetchCatalog, err)
	}

	disk := afero.NewOsFs()
	mem := afero.NewMemMapFs()
	found := 0

	for _, name := range Files {
		b, err := afero.ReadFile(disk, filepath.Join(res.Dst, name))
		if errors.Is(err, iofs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, errors.Join(ErrFetchCatalog, err)
		}

		if err := afero.WriteFile(mem, filepath.Join("/", name), b, 0o644); err != nil {
			return nil, errors.Join(ErrFetchCatalog, err)
		}

		found++
	}

	if found == 0 {
		return nil, errors.Join(ErrFetchCatalog, ErrEmptyCatalog)
	}

	ctxlog.Debug(ctx, "catalog fetched", "source", src, "files", found)

	return mem, nil
}
