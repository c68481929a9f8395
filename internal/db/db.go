// Package db provides SQLite persistence for the outreach event log.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/homelistingai/outreach/internal/logging"
)

// DB wraps the SQLite connection.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return open("file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
}

// OpenInMemory opens a fresh in-memory database, used by tests.
func OpenInMemory() (*DB, error) {
	return open("file::memory:?cache=shared")
}

func open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite handles a single writer; more connections just contend.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: conn, logger: logging.Component("db")}, nil
}

// Migrate creates the schema if it does not exist.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id           TEXT PRIMARY KEY,
			timestamp    TEXT NOT NULL,
			type         TEXT NOT NULL,
			entity_type  TEXT NOT NULL,
			entity_id    TEXT NOT NULL,
			payload_json TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_events_entity
			ON events (entity_type, entity_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_events_type
			ON events (type, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	d.logger.Debug().Msg("schema migrated")
	return nil
}
