package sessiondb

import (
	"github.com/NotCoffee418/serial_terminal/pkg/types"
)

// Timestamps are unix milliseconds.
type Session struct {
	Id        int64  `db:"id"`
	Port      string `db:"port"`
	Driver    string `db:"driver"`
	Baudrate  uint   `db:"baudrate"`
	StartedAt int64  `db:"started_at"`
	// Zero while the session is still running or when it never ended cleanly
	EndedAt   int64  `db:"ended_at"`
	EndReason string `db:"end_reason"`
}

type SessionSummary struct {
	Session
	BytesSent     int64 `db:"bytes_sent"`
	BytesReceived int64 `db:"bytes_received"`
}

type TranscriptEntry struct {
	Id        int64           `db:"id"`
	SessionId int64           `db:"session_id"`
	Timestamp int64           `db:"timestamp"`
	Direction types.Direction `db:"direction"`
	Data      []byte          `db:"data"`
	Crc       uint16          `db:"crc"`
	// Stored checksum still matches the data
	Valid bool `db:"-"`
}
