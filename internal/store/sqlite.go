package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQLite driver, registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"
)

var _ Store = (*SQLStore)(nil)

const createEventsTableSQL = `
CREATE TABLE IF NOT EXISTS rate_limit_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    identifier VARCHAR(255) NOT NULL,
    endpoint VARCHAR(255) NOT NULL,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_identifier_endpoint_timestamp ON rate_limit_events(identifier, endpoint, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_identifier_timestamp ON rate_limit_events(identifier, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_endpoint_timestamp ON rate_limit_events(endpoint, timestamp);
`

// SQLStore is a SQLite-backed event log.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (or creates) the database at path and bootstraps
// the schema. The connection pool is capped at one writer because
// SQLite serializes writes anyway.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStoreWithDB wraps an existing connection. Used by tests and by
// callers that share one *sql.DB across components.
func NewSQLStoreWithDB(db *sql.DB) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	s := &SQLStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createEventsTableSQL); err != nil {
		return fmt.Errorf("failed to create rate_limit_events table: %w", err)
	}
	return nil
}

func (s *SQLStore) Record(ctx context.Context, e Event) error {
	const query = `INSERT INTO rate_limit_events (identifier, endpoint, timestamp) VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, e.Identifier, e.Endpoint, e.Timestamp.UTC()); err != nil {
		return fmt.Errorf("failed to record event: %w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLStore) CountInRange(ctx context.Context, identifier, endpoint string, start, end time.Time) (int64, error) {
	const query = `
		SELECT COUNT(*) FROM rate_limit_events
		WHERE identifier = ? AND endpoint = ? AND timestamp >= ? AND timestamp < ?`

	var count int64
	err := s.db.QueryRowContext(ctx, query, identifier, endpoint, start.UTC(), end.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w: %v", ErrUnavailable, err)
	}
	return count, nil
}

func (s *SQLStore) ListInRange(ctx context.Context, identifier string, start, end time.Time) ([]Event, error) {
	const query = `
		SELECT identifier, endpoint, timestamp FROM rate_limit_events
		WHERE identifier = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, identifier, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Identifier, &e.Endpoint, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
