// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package eventlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/shellexec"
	"github.com/spf13/afero"
)

// DefaultLogger is the journal writer. It must understand --journald=FILE.
const DefaultLogger = "logger"

// DefaultIdentifier is the SYSLOG_IDENTIFIER of events logged from the command line.
const DefaultIdentifier = "supportctl"

var (
	// ErrUnknownEvent is returned when the event name is not in the catalog.
	ErrUnknownEvent = errors.New("unknown event name")
	// ErrEmit is returned when the journal could not be written.
	ErrEmit = errors.New("failed to write the journal")
)

// FsFactory returns the filesystem the journal field file is written to. The writer is
// an external process, so this must be a real filesystem outside of tests.
var FsFactory = afero.NewOsFs

// Fields returns the journal fields of an event, MESSAGE first. Each key is also stored
// as an OPS_EVENT_<KEY> field.
func Fields(def catalog.EventDefinition, kv map[string]string) []string {
	fields := []string{
		"MESSAGE=" + oneLine(Render(def, kv)),
		"PRIORITY=" + strconv.Itoa(severityPriority(def.Severity)),
		"MESSAGE_ID=" + MessageID,
		"OPS_EVENT_ID=" + strconv.Itoa(def.ID),
		"OPS_EVENT_CATEGORY=" + def.Category,
	}

	for _, k := range def.KeyNames() {
		if v, ok := kv[k]; ok {
			fields = append(fields, "OPS_EVENT_"+fieldName(k)+"="+oneLine(v))
		}
	}

	return fields
}

// unknownFields is the record written for a name missing from the catalog.
func unknownFields(name string) []string {
	return []string{
		"MESSAGE=ops-evt|Unknown Event Name " + oneLine(name),
		"MESSAGE_ID=" + MessageID,
	}
}

// severityPriority maps LOG_INFO or info to its syslog priority. Unknown names log at
// LOG_INFO.
func severityPriority(s string) int {
	for i, n := range priorityNames {
		if strings.EqualFold(s, n) {
			return i
		}
	}

	if p, err := ParseSeverity(strings.TrimPrefix(strings.ToLower(s), "log_")); err == nil {
		return p
	}

	return 6
}

func fieldName(k string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, k)
}

// oneLine keeps the journal export format valid: one field per line.
func oneLine(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// ParseKeyValues turns key=value arguments into a map.
func ParseKeyValues(args []string) (map[string]string, error) {
	kv := make(map[string]string, len(args))

	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}

		kv[k] = v
	}

	return kv, nil
}

// Emitter writes events to the journal.
type Emitter struct {
	Path       string // journal writer binary, DefaultLogger when empty
	Identifier string // SYSLOG_IDENTIFIER, DefaultIdentifier when empty
}

// Log writes the named event with its key values. An unknown name writes an
// "Unknown Event Name" record and returns ErrUnknownEvent.
func (e *Emitter) Log(ctx context.Context, ec *catalog.EventCatalog, name string, kv map[string]string) error {
	def, ok := ec.ByName(name)
	if !ok {
		if err := e.write(ctx, unknownFields(name)); err != nil {
			return errors.Join(fmt.Errorf("%w: %s", ErrUnknownEvent, name), err)
		}

		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}

	for _, k := range def.KeyNames() {
		if _, ok := kv[k]; !ok {
			ctxlog.Warn(ctx, "event key not given", "event", name, "key", k)
		}
	}

	return e.write(ctx, Fields(def, kv))
}

func (e *Emitter) write(ctx context.Context, fields []string) error {
	path := e.Path
	if path == "" {
		path = DefaultLogger
	}

	ident := e.Identifier
	if ident == "" {
		ident = DefaultIdentifier
	}

	fs := FsFactory()

	f, err := afero.TempFile(fs, "", "supportctl-event-")
	if err != nil {
		return errors.Join(ErrEmit, err)
	}

	defer fs.Remove(f.Name()) //nolint:errcheck

	body := strings.Join(append(fields, "SYSLOG_IDENTIFIER="+oneLine(ident)), "\n") + "\n"

	_, werr := io.WriteString(f, body)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}

	if werr != nil {
		return errors.Join(ErrEmit, werr)
	}

	cmd := shellexec.Command{
		Shell: []string{path},
		Line:  "--journald=" + f.Name(),
	}

	if err := shellexec.Run(ctx, cmd, io.Discard); err != nil {
		return errors.Join(ErrEmit, err)
	}

	ctxlog.Debug(ctx, "event written", "message", fields[0])

	return nil
}
