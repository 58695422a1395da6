// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/spf13/afero"
)

// DefaultDir is where the switch image installs its catalogs.
const DefaultDir = "/etc/openswitch/supportability"

// Catalog file names, relative to the catalog directory.
const (
	DiagDumpFile       = "ops_diagdump.yaml"
	FeatureMappingFile = "ops_featuremapping.yaml"
	ShowTechFile       = "ops_showtech.yaml"
	ShowTechHCLFile    = "ops_showtech.hcl"
	EventsFile         = "ops_events.yaml"
	CoreDumpFile       = "ops_coredump.yaml"
)

// Files lists every file a catalog directory may contain.
var Files = []string{
	DiagDumpFile,
	FeatureMappingFile,
	ShowTechFile,
	ShowTechHCLFile,
	EventsFile,
	CoreDumpFile,
}

var (
	// ErrReadCatalog is returned when a catalog file cannot be read.
	ErrReadCatalog = errors.New("unable to read catalog file")
	// ErrInvalidCatalog is returned when a catalog file cannot be parsed or fails validation.
	ErrInvalidCatalog = errors.New("invalid catalog file")
)

// ErrUnknownFeature is returned when a feature or sub feature is not in a catalog.
type ErrUnknownFeature struct {
	Kind string // "Feature" or "Sub Feature"
	Name string
}

// Error implements the error interface for ErrUnknownFeature.
func (e *ErrUnknownFeature) Error() string {
	return fmt.Sprintf("%s %s is not supported", e.Kind, e.Name)
}

func newErrUnknownFeature(kind, name string) *ErrUnknownFeature {
	return &ErrUnknownFeature{Kind: kind, Name: name}
}

// Catalog is a directory of catalog files on an afero filesystem.
type Catalog struct {
	dir string
	fs  afero.Fs
}

// New returns a catalog rooted at dir on the filesystem returned by FsFactory.
func New(dir string) *Catalog {
	return NewWithFs(FsFactory(), dir)
}

// NewWithFs returns a catalog rooted at dir on fs.
func NewWithFs(fs afero.Fs, dir string) *Catalog {
	return &Catalog{dir: dir, fs: fs}
}

// Open returns a catalog for location. A location that is a local directory is used in
// place. Anything else is treated as a go-getter source and downloaded into memory.
func Open(ctx context.Context, location string) (*Catalog, error) {
	if location == "" {
		location = DefaultDir
	}

	fs := FsFactory()
	if ok, _ := afero.DirExists(fs, location); ok {
		return NewWithFs(fs, location), nil
	}

	ctxlog.Debug(ctx, "catalog is not a local directory, fetching", "location", location)

	mem, err := fetchDir(ctx, location)
	if err != nil {
		return nil, err
	}

	return NewWithFs(mem, "/"), nil
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Path returns the full path of the named catalog file.
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// Exists reports whether the named catalog file is present.
func (c *Catalog) Exists(name string) bool {
	ok, err := afero.Exists(c.fs, c.Path(name))
	return ok && err == nil
}

func (c *Catalog) read(name string) ([]byte, error) {
	b, err := afero.ReadFile(c.fs, c.Path(name))
	if err != nil {
		return nil, errors.Join(ErrReadCatalog, err)
	}

	return b, nil
}

func (c *Catalog) readYAML(name string, v any) error {
	b, err := c.read(name)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, name, err)
	}

	return nil
}
