package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"guestbook/internal/model"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	timestamp TEXT PRIMARY KEY,
	username  TEXT NOT NULL,
	message   TEXT NOT NULL
)`

type sqliteRow struct {
	Timestamp string `db:"timestamp"`
	Username  string `db:"username"`
	Message   string `db:"message"`
}

// SQLiteStore keeps messages in a single table keyed by timestamp.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens the database file at path and creates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and writes ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, ts string, msg model.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (timestamp, username, message) VALUES (?, ?, ?)
		 ON CONFLICT(timestamp) DO UPDATE SET username = excluded.username, message = excluded.message`,
		ts, msg.Username, msg.Message)
	return err
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Entry, error) {
	var rows []sqliteRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT timestamp, username, message FROM messages ORDER BY timestamp`); err != nil {
		return nil, err
	}

	entries := make([]model.Entry, len(rows))
	for i, r := range rows {
		entries[i] = model.Entry{
			Timestamp: r.Timestamp,
			Message:   model.Message{Username: r.Username, Message: r.Message},
		}
	}
	return entries, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
