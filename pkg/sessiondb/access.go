package sessiondb

import (
	"fmt"
	"time"

	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"github.com/NotCoffee418/serial_terminal/pkg/types"
	"github.com/sigurn/crc16"
	"go.uber.org/zap"
)

var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

func checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// StartSession records a new session and returns its id.
func (s *SessionDb) StartSession(port string, driver string, baudrate uint) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO sessions (port, driver, baudrate, started_at) "+
			"VALUES (?, ?, ?, ?)",
		port,
		driver,
		baudrate,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start session: %w", err)
	}
	return result.LastInsertId()
}

func (s *SessionDb) EndSession(sessionId int64, reason string) error {
	_, err := s.db.Exec(
		"UPDATE sessions SET ended_at = ?, end_reason = ? WHERE id = ?",
		time.Now().UnixMilli(),
		reason,
		sessionId,
	)
	if err != nil {
		return fmt.Errorf("failed to end session %d: %w", sessionId, err)
	}
	return nil
}

func (s *SessionDb) InsertChunk(sessionId int64, chunk *types.Chunk) error {
	data := chunk.Data
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.Exec(
		"INSERT INTO transcript (session_id, timestamp, direction, data, crc) "+
			"VALUES (?, ?, ?, ?, ?)",
		sessionId,
		chunk.Timestamp.UnixMilli(),
		string(chunk.Direction),
		data,
		checksum(data),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// Recorder returns a chunk handler that stores into sessionId.
// Failures are logged, the terminal keeps running without the record.
func (s *SessionDb) Recorder(sessionId int64) func(chunk *types.Chunk) {
	return func(chunk *types.Chunk) {
		if err := s.InsertChunk(sessionId, chunk); err != nil {
			logger.Get().Warn("Session log write failed", zap.Int64("session", sessionId), zap.Error(err))
		}
	}
}

// ListSessions returns the most recent sessions first, at most limit.
func (s *SessionDb) ListSessions(limit int) ([]SessionSummary, error) {
	rows, err := s.db.Query(
		"SELECT s.id, s.port, s.driver, s.baudrate, s.started_at, "+
			"COALESCE(s.ended_at, 0), COALESCE(s.end_reason, ''), "+
			"COALESCE(SUM(CASE WHEN t.direction = 'tx' THEN LENGTH(t.data) END), 0), "+
			"COALESCE(SUM(CASE WHEN t.direction = 'rx' THEN LENGTH(t.data) END), 0) "+
			"FROM sessions s LEFT JOIN transcript t ON t.session_id = s.id "+
			"GROUP BY s.id ORDER BY s.id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var summary SessionSummary
		err := rows.Scan(
			&summary.Id,
			&summary.Port,
			&summary.Driver,
			&summary.Baudrate,
			&summary.StartedAt,
			&summary.EndedAt,
			&summary.EndReason,
			&summary.BytesSent,
			&summary.BytesReceived,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, summary)
	}
	return sessions, rows.Err()
}

// Transcript returns every chunk of a session in the order it was recorded.
func (s *SessionDb) Transcript(sessionId int64) ([]TranscriptEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, session_id, timestamp, direction, data, crc "+
			"FROM transcript WHERE session_id = ? ORDER BY id",
		sessionId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript %d: %w", sessionId, err)
	}
	defer rows.Close()

	var entries []TranscriptEntry
	for rows.Next() {
		var entry TranscriptEntry
		var direction string
		err := rows.Scan(
			&entry.Id,
			&entry.SessionId,
			&entry.Timestamp,
			&direction,
			&entry.Data,
			&entry.Crc,
		)
		if err != nil {
			return nil, err
		}
		entry.Direction = types.Direction(direction)
		entry.Valid = checksum(entry.Data) == entry.Crc
		if !entry.Valid {
			logger.Get().Warn("Transcript checksum mismatch",
				zap.Int64("session", sessionId),
				zap.Int64("entry", entry.Id))
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
