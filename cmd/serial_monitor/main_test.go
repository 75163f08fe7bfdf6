package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/NotCoffee418/serial_terminal/pkg/sessiondb"
	"github.com/NotCoffee418/serial_terminal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlyDeviceOutputIsShown(t *testing.T) {
	var out bytes.Buffer
	handleChunk(&out, types.NewRxChunk("/dev/ttyUSB0", []byte("$ "), "$ "))
	handleChunk(&out, types.NewTxChunk("/dev/ttyUSB0", 'l'))
	handleChunk(&out, types.NewRxChunk("/dev/ttyUSB0", []byte("l"), "l"))
	assert.Equal(t, "$ l", out.String())
}

func TestFormatSession(t *testing.T) {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	line := formatSession(sessiondb.SessionSummary{
		Session: sessiondb.Session{
			Id:        7,
			Port:      "/dev/ttyUSB0",
			Driver:    "jacobsa",
			Baudrate:  115200,
			StartedAt: started.UnixMilli(),
			EndedAt:   started.Add(90 * time.Second).UnixMilli(),
			EndReason: "sentinel",
		},
		BytesSent:     12,
		BytesReceived: 3400,
	})
	assert.Contains(t, line, "2024-03-01 12:00:00")
	assert.Contains(t, line, "/dev/ttyUSB0")
	assert.Contains(t, line, "tx 12  rx 3400")
	assert.Contains(t, line, "1m30s (sentinel)")

	line = formatSession(sessiondb.SessionSummary{Session: sessiondb.Session{Id: 8, StartedAt: started.UnixMilli()}})
	assert.Contains(t, line, "running")
}

func TestPrintTranscriptShowsReceivedBytes(t *testing.T) {
	db, err := sessiondb.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer db.Close()

	id, err := db.StartSession("/dev/ttyUSB0", "jacobsa", 9600)
	require.NoError(t, err)
	require.NoError(t, db.InsertChunk(id, types.NewTxChunk("/dev/ttyUSB0", 'v')))
	require.NoError(t, db.InsertChunk(id, types.NewRxChunk("/dev/ttyUSB0", []byte("v1.2.0\r\n"), "v1.2.0\r\n")))

	var out bytes.Buffer
	require.NoError(t, printTranscript(db, id, &out))
	assert.Equal(t, "v1.2.0\r\n", out.String())

	assert.Error(t, printTranscript(db, id+1, &out))
}

func TestUsageErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitUsage, run([]string{"a:1", "b:2"}, &out))
	assert.Equal(t, exitUsage, run([]string{"-history", "-1"}, &out))
	assert.Equal(t, 0, run([]string{"-h"}, &out))
}
