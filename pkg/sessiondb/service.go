// SessionDB records terminal sessions and everything that crossed the wire during them.
// Only serial_terminal writes to it, serial_monitor reads it.
package sessiondb

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/NotCoffee418/dbmigrator"
	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type SessionDb struct {
	db *sql.DB
}

// Open the database at path, creating it and applying migrations as needed.
func Open(path string) (*SessionDb, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	// Rx and tx chunks arrive from different goroutines
	db.SetMaxOpenConns(1)

	// Create DB before migrations
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open session db %s: %w", path, err)
	}

	// Apply migrations
	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)
	if _, err := db.Exec("SELECT 1 FROM sessions JOIN transcript LIMIT 1;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("session db schema missing after migrations: %w", err)
	}

	logger.Get().Debug("Session db ready", zap.String("path", path))
	return &SessionDb{db: db}, nil
}

func (s *SessionDb) Close() error {
	return s.db.Close()
}
