package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/campaignmesh/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_index (
	id    TEXT PRIMARY KEY,
	title TEXT
);
CREATE TABLE IF NOT EXISTS session_records (
	id         TEXT PRIMARY KEY,
	context    BLOB NOT NULL,
	transcript TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// SQLiteStore keeps sessions in a single SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (and migrates) the database at path. Use ":memory:" for
// an ephemeral database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// SaveRecord implements Store.
func (s *SQLiteStore) SaveRecord(ctx context.Context, rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}

	ec := rec.Context
	if ec == nil {
		ec = core.NewExecutionContext("")
	}

	ctxData, err := ec.Marshal()
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	transcript := rec.Transcript
	if transcript == nil {
		transcript = []string{}
	}

	trData, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_records (id, context, transcript, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			context = excluded.context,
			transcript = excluded.transcript,
			updated_at = excluded.updated_at
	`, rec.ID, ctxData, string(trData), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}

	return nil
}

// LoadRecord implements Store.
func (s *SQLiteStore) LoadRecord(ctx context.Context, id string) (Record, error) {
	var (
		ctxData []byte
		trData  string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT context, transcript FROM session_records WHERE id = ?`, id,
	).Scan(&ctxData, &trData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("load record %s: %w", id, err)
	}

	ec, err := core.UnmarshalExecutionContext(ctxData)
	if err != nil {
		return Record{}, fmt.Errorf("unmarshal context: %w", err)
	}

	var transcript []string
	if err := json.Unmarshal([]byte(trData), &transcript); err != nil {
		return Record{}, fmt.Errorf("unmarshal transcript: %w", err)
	}

	return Record{ID: id, Context: ec, Transcript: transcript}, nil
}

// LoadIndex implements Store.
func (s *SQLiteStore) LoadIndex(ctx context.Context) (Titles, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM session_index`)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	defer rows.Close()

	titles := Titles{}

	for rows.Next() {
		var (
			id    string
			title sql.NullString
		)
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}

		if title.Valid {
			v := title.String
			titles[id] = &v
		} else {
			titles[id] = nil
		}
	}

	return titles, rows.Err()
}

// SaveIndex implements Store.
func (s *SQLiteStore) SaveIndex(ctx context.Context, titles Titles) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_index`); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO session_index (id, title) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare index insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range titles.IDs() {
		var title sql.NullString
		if t := titles[id]; t != nil {
			title = sql.NullString{String: *t, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, id, title); err != nil {
			return fmt.Errorf("insert index %s: %w", id, err)
		}
	}

	return tx.Commit()
}
