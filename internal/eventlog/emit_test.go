// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package eventlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEvents = &catalog.EventCatalog{Definitions: []catalog.EventDefinition{
	{
		Name:        "LLDP_NEIGHBOR_ADD",
		Category:    "LLDP",
		ID:          1002,
		Severity:    "LOG_INFO",
		Keys:        "chassis_id, interface",
		Description: "Neighbor {chassis_id} added on {interface}",
	},
	{Name: "FAN_FAULT", Category: "FAN", ID: 2001, Severity: "LOG_CRIT", Keys: "fan", Description: "Fan {fan} failed"},
}}

// fakeLogger writes a script that copies the --journald field file to the returned path.
func fakeLogger(t *testing.T) (path, fieldsFile string) {
	t.Helper()

	dir := t.TempDir()
	fieldsFile = filepath.Join(dir, "fields")
	path = filepath.Join(dir, "logger")

	script := "#!/bin/sh\ncase \"$1\" in --journald=*) cat \"${1#--journald=}\" > " + fieldsFile + " ;; *) exit 2 ;; esac\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path, fieldsFile
}

func TestEmitterLog(t *testing.T) {
	path, fieldsFile := fakeLogger(t)
	e := &Emitter{Path: path, Identifier: "ops-lldpd"}

	err := e.Log(context.Background(), testEvents, "LLDP_NEIGHBOR_ADD",
		map[string]string{"chassis_id": "00:11", "interface": "1\n2"})
	require.NoError(t, err)

	got, err := os.ReadFile(fieldsFile)
	require.NoError(t, err)
	assert.Equal(t,
		"MESSAGE=ops-evt|1002|LOG_INFO|Neighbor 00:11 added on 1 2\n"+
			"PRIORITY=6\n"+
			"MESSAGE_ID="+MessageID+"\n"+
			"OPS_EVENT_ID=1002\n"+
			"OPS_EVENT_CATEGORY=LLDP\n"+
			"OPS_EVENT_CHASSIS_ID=00:11\n"+
			"OPS_EVENT_INTERFACE=1 2\n"+
			"SYSLOG_IDENTIFIER=ops-lldpd\n",
		string(got))
}

func TestFieldsPriority(t *testing.T) {
	fields := Fields(testEvents.Definitions[1], map[string]string{"fan": "3"})
	assert.Equal(t, "MESSAGE=ops-evt|2001|LOG_CRIT|Fan 3 failed", fields[0])
	assert.Contains(t, fields, "PRIORITY=2")
	assert.Contains(t, fields, "OPS_EVENT_FAN=3")

	assert.Equal(t, 4, severityPriority("warn"))
	assert.Equal(t, 6, severityPriority("LOG_SOMETHING"))
}

func TestEmitterUnknownEvent(t *testing.T) {
	path, fieldsFile := fakeLogger(t)
	e := &Emitter{Path: path}

	err := e.Log(context.Background(), testEvents, "NO_SUCH_EVENT", nil)
	require.ErrorIs(t, err, ErrUnknownEvent)

	got, rerr := os.ReadFile(fieldsFile)
	require.NoError(t, rerr)
	assert.Equal(t,
		"MESSAGE=ops-evt|Unknown Event Name NO_SUCH_EVENT\n"+
			"MESSAGE_ID="+MessageID+"\n"+
			"SYSLOG_IDENTIFIER="+DefaultIdentifier+"\n",
		string(got))
}

func TestEmitterWriterFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logger")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 1\n"), 0o755))

	err := (&Emitter{Path: path}).Log(context.Background(), testEvents, "FAN_FAULT", map[string]string{"fan": "1"})
	require.ErrorIs(t, err, ErrEmit)

	err = (&Emitter{Path: filepath.Join(dir, "missing")}).Log(context.Background(), testEvents, "FAN_FAULT", nil)
	require.ErrorIs(t, err, ErrEmit)
}

func TestParseKeyValues(t *testing.T) {
	kv, err := ParseKeyValues([]string{"fan=1", "speed=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"fan": "1", "speed": "a=b"}, kv)

	_, err = ParseKeyValues([]string{"fan"})
	require.Error(t, err)
	_, err = ParseKeyValues([]string{"=1"})
	require.Error(t, err)
}
