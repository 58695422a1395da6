// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package eventlog reads switch events from the systemd journal and renders event
// catalog entries.
package eventlog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/shellexec"
)

// MessageID marks journal entries written by the event log.
const MessageID = "50c0fa81c2a545ec982a54293f1b1945"

// DefaultJournalctl is the journal reader.
const DefaultJournalctl = "journalctl"

var (
	// ErrInvalidSeverity is returned for an unknown severity name.
	ErrInvalidSeverity = errors.New("invalid severity")
	// ErrQuery is returned when the journal could not be read.
	ErrQuery = errors.New("failed to read the journal")
)

// Severities are the accepted severity names, most severe first. The index is the syslog
// priority.
var Severities = []string{"emer", "alert", "crit", "err", "warn", "notice", "info", "debug"}

var priorityNames = []string{
	"LOG_EMERG", "LOG_ALERT", "LOG_CRIT", "LOG_ERR",
	"LOG_WARN", "LOG_NOTICE", "LOG_INFO", "LOG_DEBUG",
}

// ParseSeverity returns the syslog priority of a severity name.
func ParseSeverity(s string) (int, error) {
	if i := slices.Index(Severities, strings.ToLower(s)); i >= 0 {
		return i, nil
	}

	return 0, fmt.Errorf("%w: %q, expected one of %s", ErrInvalidSeverity, s, strings.Join(Severities, ", "))
}

// PriorityName returns the LOG_* name of a syslog priority.
func PriorityName(p int) string {
	if p < 0 || p >= len(priorityNames) {
		return strconv.Itoa(p)
	}

	return priorityNames[p]
}

// Render formats an event message the way it is stored in the journal:
// ops-evt|ID|SEVERITY|description, with {key} placeholders replaced from kv.
func Render(def catalog.EventDefinition, kv map[string]string) string {
	desc := def.Description

	for _, k := range def.KeyNames() {
		if v, ok := kv[k]; ok {
			desc = strings.ReplaceAll(desc, "{"+k+"}", v)
		}
	}

	return fmt.Sprintf("ops-evt|%d|%s|%s", def.ID, def.Severity, desc)
}

// Entry is the subset of a journal JSON record used for events.
type Entry struct {
	Message           string `json:"MESSAGE"`
	Identifier        string `json:"SYSLOG_IDENTIFIER"`
	SourceTimestamp   string `json:"_SOURCE_REALTIME_TIMESTAMP"`
	RealtimeTimestamp string `json:"__REALTIME_TIMESTAMP"`
	Priority          string `json:"PRIORITY"`
	EventID           string `json:"OPS_EVENT_ID"`
	Category          string `json:"OPS_EVENT_CATEGORY"`
}

// Time returns the time the event was logged, preferring the source timestamp.
func (e *Entry) Time() time.Time {
	for _, s := range []string{e.SourceTimestamp, e.RealtimeTimestamp} {
		if us, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMicro(us)
		}
	}

	return time.Time{}
}

// Line formats the entry as time|module|ID|SEVERITY|description.
func (e *Entry) Line() string {
	msg := e.Message
	if i := strings.IndexByte(msg, '|'); i >= 0 {
		msg = msg[i:]
	} else {
		msg = "|" + msg
	}

	return e.Time().Format("2006-01-02:15:04:05.000000") + "|" + e.Identifier + msg
}

// Filter selects journal entries. Zero values match everything.
type Filter struct {
	IDs         []int
	MaxPriority *int // entries at or above this severity
	Category    string
	Reverse     bool
}

// Match reports whether e passes the filter.
func (f *Filter) Match(e *Entry) bool {
	if len(f.IDs) > 0 {
		id, err := strconv.Atoi(e.EventID)
		if err != nil || !slices.Contains(f.IDs, id) {
			return false
		}
	}

	if f.MaxPriority != nil {
		p, err := strconv.Atoi(e.Priority)
		if err != nil || p > *f.MaxPriority {
			return false
		}
	}

	if f.Category != "" && !strings.EqualFold(f.Category, e.Category) {
		return false
	}

	return true
}

// Decode reads journal JSON records, one per line. Lines that are not JSON objects, such
// as journalctl notices, are skipped.
func Decode(ctx context.Context, r io.Reader) ([]Entry, error) {
	var entries []Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			ctxlog.Debug(ctx, "skipping undecodable journal record", "error", err)
			continue
		}

		entries = append(entries, e)
	}

	return entries, sc.Err() //nolint:wrapcheck
}

// Journal queries the event log with journalctl.
type Journal struct {
	Path string // journalctl binary, DefaultJournalctl when empty
}

// Query returns the event log entries matching f, oldest first unless f.Reverse is set.
func (j *Journal) Query(ctx context.Context, f Filter) ([]Entry, error) {
	path := j.Path
	if path == "" {
		path = DefaultJournalctl
	}

	var buf bytes.Buffer

	cmd := shellexec.Command{
		Shell: []string{path, "--no-pager", "-o", "json"},
		Line:  "MESSAGE_ID=" + MessageID,
	}

	if err := shellexec.Run(ctx, cmd, &buf); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}

	all, err := Decode(ctx, &buf)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}

	entries := slices.DeleteFunc(all, func(e Entry) bool { return !f.Match(&e) })

	if f.Reverse {
		slices.Reverse(entries)
	}

	return entries, nil
}

const showRule = "---------------------------------------------------"

// Show writes the event log header followed by one line per entry.
func Show(w io.Writer, entries []Entry) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\nshow event logs\n%s\n", showRule, showRule)

	for i := range entries {
		b.WriteString(entries[i].Line())
		b.WriteByte('\n')
	}

	if len(entries) == 0 {
		b.WriteString("No event has been logged in the system\n")
	}

	_, err := io.WriteString(w, b.String())

	return err //nolint:wrapcheck
}

// List writes the event catalog, optionally limited to one category.
func List(w io.Writer, ec *catalog.EventCatalog, category string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%-8s %-32s %-11s %-12s %s\n", "ID", "Name", "Severity", "Category", "Description")
	fmt.Fprintln(&b, strings.Repeat("-", 90))

	for _, d := range ec.ByCategory(category) {
		fmt.Fprintf(&b, "%-8d %-32s %-11s %-12s %s\n", d.ID, d.Name, d.Severity, d.Category, d.Description)
	}

	_, err := io.WriteString(w, b.String())

	return err //nolint:wrapcheck
}
