// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastLineWriter_Lines(t *testing.T) {
	tests := []struct {
		name            string
		writes          []string
		expectedLast    string
		expectedPartial string
		expectedLines   []string
	}{
		{
			name:          "single line with newline",
			writes:        []string{"hello world\n"},
			expectedLast:  "hello world",
			expectedLines: []string{"hello world"},
		},
		{
			name:            "single line without newline",
			writes:          []string{"hello world"},
			expectedPartial: "hello world",
		},
		{
			name:          "just newline",
			writes:        []string{"\n"},
			expectedLines: []string{""},
		},
		{
			name:            "multiple lines in one write",
			writes:          []string{"a\nb\nc"},
			expectedLast:    "b",
			expectedPartial: "c",
			expectedLines:   []string{"a", "b"},
		},
		{
			name:          "line split across writes",
			writes:        []string{"Command : ", "show vlan", "\r\n"},
			expectedLast:  "Command : show vlan",
			expectedLines: []string{"Command : show vlan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				dst   bytes.Buffer
				lines []string
			)

			lw := NewLastLineWriter(&dst, WithLineFunc(func(l string) { lines = append(lines, l) }))

			for _, w := range tt.writes {
				n, err := lw.Write([]byte(w))
				require.NoError(t, err)
				assert.Equal(t, len(w), n)
			}

			assert.Equal(t, strings.Join(tt.writes, ""), dst.String())
			assert.Equal(t, tt.expectedLast, lw.LastLine(0))
			assert.Equal(t, tt.expectedPartial, lw.Partial())
			assert.Equal(t, tt.expectedLines, lines)
			assert.Equal(t, int64(dst.Len()), lw.BytesWritten())
		})
	}
}

func TestLastLineWriter_Truncate(t *testing.T) {
	lw := NewLastLineWriter(nil)
	_, _ = io.WriteString(lw, "0123456789\n")

	assert.Equal(t, "0123456789", lw.LastLine(0))
	assert.Equal(t, "0123456789", lw.LastLine(10))
	assert.Equal(t, "01234...", lw.LastLine(8))
}

func TestLastLineWriter_Flush(t *testing.T) {
	lw := NewLastLineWriter(nil)
	_, _ = io.WriteString(lw, "done\ntrailing")

	lw.Flush()
	assert.Equal(t, "trailing", lw.LastLine(0))
	assert.Empty(t, lw.Partial())

	lw.Flush()
	assert.Equal(t, "trailing", lw.LastLine(0))
}

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 2, errors.New("short") }

func TestLastLineWriter_PropagatesError(t *testing.T) {
	lw := NewLastLineWriter(errWriter{})

	n, err := lw.Write([]byte("ab\ncd"))
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ab", lw.Partial())
}

func TestLastLineWriter_Concurrent(t *testing.T) {
	var dst bytes.Buffer

	lw := NewLastLineWriter(&dst)

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				_, _ = io.WriteString(lw, "line\n")
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, "line", lw.LastLine(0))
	assert.Equal(t, int64(5000), lw.BytesWritten())
}
