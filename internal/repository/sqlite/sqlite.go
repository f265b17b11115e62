// Package sqlite implements the repository interfaces on SQLite via the
// pure-Go modernc.org/sqlite driver (no CGo, cross-compiles anywhere).
//
// The schema encodes the ownership tree directly: events reference months
// and event_details reference events, both with ON DELETE CASCADE. Together
// with PRAGMA foreign_keys=ON this makes "no orphan survives a parent
// delete" a property of the store, not of application code.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements
// repository.UserRepository and repository.CalendarRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for a throwaway in-memory database in tests.
//
// Both pragmas ride in the DSN rather than a one-off Exec: foreign_keys
// (and journal_mode) are per-connection settings, and database/sql opens
// new connections behind our back. A pragma set by Exec would configure
// only the one pooled connection that happened to run it, and the cascade
// semantics of the calendar tree depend on foreign_keys being ON for
// every connection that executes a delete.
func New(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbPath)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pool connection to ":memory:" would get its own empty
	// database; a single connection keeps them all looking at one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. The server defers this on shutdown so
// the WAL is flushed and the file lock released.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// xid primary keys sort by creation time, so ORDER BY id gives
	// insertion order without a separate sort column.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS months (
			id       TEXT PRIMARY KEY,
			month_bn TEXT NOT NULL,
			month_en TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating months table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id       TEXT PRIMARY KEY,
			month_id TEXT NOT NULL REFERENCES months(id) ON DELETE CASCADE,
			day      TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_month_id ON events(month_id);
		CREATE INDEX IF NOT EXISTS idx_events_month_day ON events(month_id, day);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS event_details (
			id       TEXT PRIMARY KEY,
			event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			detail   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_event_details_event_id ON event_details(event_id);
	`)
	if err != nil {
		return fmt.Errorf("creating event_details table: %w", err)
	}

	return nil
}
