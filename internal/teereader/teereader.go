// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"io"
	"strings"
	"sync"
)

// LastLineWriter forwards writes to an underlying writer and tracks the last complete line.
// It is safe for concurrent use.
type LastLineWriter struct {
	w        io.Writer
	onLine   func(string)
	lastLine string
	partial  strings.Builder
	written  int64
	mu       sync.RWMutex
}

// Option configures a LastLineWriter.
type Option func(*LastLineWriter)

// WithLineFunc registers fn to be called for every complete line written.
// fn is called with the writer's lock held and must not call back into it.
func WithLineFunc(fn func(line string)) Option {
	return func(lw *LastLineWriter) {
		lw.onLine = fn
	}
}

// NewLastLineWriter wraps w. A nil w discards the data but still tracks lines.
func NewLastLineWriter(w io.Writer, opts ...Option) *LastLineWriter {
	if w == nil {
		w = io.Discard
	}

	lw := &LastLineWriter{w: w}
	for _, opt := range opts {
		opt(lw)
	}

	return lw
}

// Write implements io.Writer.
func (lw *LastLineWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	n, err := lw.w.Write(p)
	if n > 0 {
		lw.written += int64(n)
		lw.processNewData(string(p[:n]))
	}

	return n, err //nolint:wrapcheck
}

// processNewData must be called with the write lock held.
func (lw *LastLineWriter) processNewData(data string) {
	lw.partial.WriteString(data)

	lines := strings.Split(lw.partial.String(), "\n")
	if len(lines) == 1 {
		return
	}

	for _, l := range lines[:len(lines)-1] {
		l = strings.TrimSuffix(l, "\r")
		lw.lastLine = l

		if lw.onLine != nil {
			lw.onLine(l)
		}
	}

	lw.partial.Reset()
	lw.partial.WriteString(lines[len(lines)-1])
}

// LastLine returns the last complete line, truncated to maxLength with a "..." suffix
// when maxLength is greater than three and the line is longer.
func (lw *LastLineWriter) LastLine(maxLength int) string {
	lw.mu.RLock()
	defer lw.mu.RUnlock()

	result := lw.lastLine
	if maxLength > 3 && len(result) > maxLength {
		result = result[:maxLength-3] + "..."
	}

	return result
}

// Partial returns data written after the last newline.
func (lw *LastLineWriter) Partial() string {
	lw.mu.RLock()
	defer lw.mu.RUnlock()

	return lw.partial.String()
}

// BytesWritten returns the number of bytes accepted by the underlying writer.
func (lw *LastLineWriter) BytesWritten() int64 {
	lw.mu.RLock()
	defer lw.mu.RUnlock()

	return lw.written
}

// Flush reports any trailing partial line as a complete line.
func (lw *LastLineWriter) Flush() {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if lw.partial.Len() == 0 {
		return
	}

	lw.processNewData("\n")
}
