// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"fmt"
	"path/filepath"
)

// DefaultCoreDumpDir is used by the image for both daemon and kernel cores.
const DefaultCoreDumpDir = "/var/diagnostics/coredump"

// CoreDumpConfig is the content of ops_coredump.yaml.
type CoreDumpConfig struct {
	DaemonPath string `yaml:"daemon_core_path"`
	KernelPath string `yaml:"kernel_core_path"`
}

// CoreDump loads the core dump locations. Both paths must be absolute.
func (c *Catalog) CoreDump() (*CoreDumpConfig, error) {
	cfg := &CoreDumpConfig{}
	if err := c.readYAML(CoreDumpFile, cfg); err != nil {
		return nil, err
	}

	for _, kv := range [][2]string{
		{"daemon_core_path", cfg.DaemonPath},
		{"kernel_core_path", cfg.KernelPath},
	} {
		if kv[1] == "" || !filepath.IsAbs(kv[1]) {
			return nil, fmt.Errorf("%w: %s: %s must be an absolute path", ErrInvalidCatalog, CoreDumpFile, kv[0])
		}
	}

	return cfg, nil
}
