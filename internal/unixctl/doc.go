// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package unixctl is a client for the JSON-RPC 1.0 control socket that every switch
// daemon exposes under its run directory.
//
// A request is {"method": M, "params": [string...], "id": N} and the daemon answers with
// {"result": string|null, "error": string|null, "id": N}. Messages are concatenated JSON
// values on the stream, without delimiters.
package unixctl
