// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package catalog loads the supportability catalogs: the feature to daemon mappings used by
// diag-dump and vlog, the show-tech command bundles, the event definitions and the core dump
// locations.
//
// Catalogs are YAML files in a single directory. A show-tech catalog may also be written in
// HCL. The directory may be a local path or any go-getter source, in which case it is
// downloaded once and served from memory.
package catalog
