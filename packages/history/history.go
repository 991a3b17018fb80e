// Package history records sent requests in a SQLite database and reports
// latency statistics over them.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sent_at      INTEGER NOT NULL,
	environment  TEXT    NOT NULL DEFAULT '',
	request_path TEXT    NOT NULL,
	method       TEXT    NOT NULL,
	url          TEXT    NOT NULL,
	status       INTEGER NOT NULL DEFAULT 0,
	duration_us  INTEGER NOT NULL DEFAULT 0,
	error        TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS history_request_path ON history (request_path, sent_at);
`

// Entry is one sent request. Status is zero and Error is set when the
// request never got a response.
type Entry struct {
	ID          int64
	Time        time.Time
	Environment string
	RequestPath string
	Method      string
	URL         string
	Status      int
	Duration    time.Duration
	Error       string
}

// Failed reports whether the request never got a response.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Store is a history database handle.
type Store struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &Store{
		db:           db,
		path:         path,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Path() string {
	return s.path
}

// Record inserts e and returns its ID. A zero Time is replaced with now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO history (sent_at, environment, request_path, method, url, status, duration_us, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UnixMilli(), e.Environment, e.RequestPath, e.Method, e.URL,
		e.Status, e.Duration.Microseconds(), e.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("record history: %w", err)
	}
	return res.LastInsertId()
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	RequestPath string
	Limit       int
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := `SELECT id, sent_at, environment, request_path, method, url, status, duration_us, error FROM history`
	var args []any
	if f.RequestPath != "" {
		query += ` WHERE request_path = ?`
		args = append(args, f.RequestPath)
	}
	query += ` ORDER BY sent_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			sentAt     int64
			durationUs int64
		)
		if err := rows.Scan(&e.ID, &sentAt, &e.Environment, &e.RequestPath, &e.Method, &e.URL, &e.Status, &durationUs, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Time = time.UnixMilli(sentAt)
		e.Duration = time.Duration(durationUs) * time.Microsecond
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}
