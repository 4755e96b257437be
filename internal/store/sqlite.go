package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mailmate/internal/model"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sessionKey = "session_token"

// SQLiteStore keeps the cached session token and the log of confirmed
// actions in a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sqlx.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS action_log (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	email_id   TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT '',
	reply      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS action_log_created_at ON action_log (created_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSessionToken caches the token issued by the last successful sign-in.
func (s *SQLiteStore) SaveSessionToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, sessionKey, token)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSessionToken returns the cached token, or "" if there is none.
func (s *SQLiteStore) LoadSessionToken(ctx context.Context) (string, error) {
	var token string
	err := s.db.GetContext(ctx, &token, "SELECT value FROM metadata WHERE key = ?", sessionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return token, nil
}

// ClearSession forgets the cached token.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM metadata WHERE key = ?", sessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

type actionRow struct {
	ID        string `db:"id"`
	Action    string `db:"action"`
	EmailID   string `db:"email_id"`
	Status    string `db:"status"`
	Reply     string `db:"reply"`
	CreatedAt string `db:"created_at"`
}

// RecordAction appends a confirmed action to the audit log.
func (s *SQLiteStore) RecordAction(ctx context.Context, rec model.ActionRecord) error {
	row := actionRow(rec)
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO action_log (id, action, email_id, status, reply, created_at)
		VALUES (:id, :action, :email_id, :status, :reply, :created_at)
	`, row)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// ListActions returns the most recent actions first, at most limit of them.
func (s *SQLiteStore) ListActions(ctx context.Context, limit int) ([]model.ActionRecord, error) {
	var rows []actionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, action, email_id, status, reply, created_at
		FROM action_log
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}

	out := make([]model.ActionRecord, len(rows))
	for i, r := range rows {
		out[i] = model.ActionRecord(r)
	}
	return out, nil
}
