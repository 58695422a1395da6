// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader copies a stream to its destination while remembering the last complete
// line, so long running show-tech commands can report progress without buffering the
// whole output twice.
package teereader
