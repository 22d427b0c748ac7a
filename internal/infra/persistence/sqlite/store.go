// Package sqlite persists the snapshot history ledger to an embedded SQLite
// database using the pure Go driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"tiercore/internal/persistence"
)

// Compile-time contract assertion.
var _ persistence.Store = (*Store)(nil)

// Store records snapshot history rows in a single SQLite table.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if necessary) the history database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "tiercore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshot_history (
		id TEXT PRIMARY KEY,
		tier TEXT NOT NULL,
		key TEXT NOT NULL,
		checksum TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Append inserts a record, assigning ID and CreatedAt when unset.
func (s *Store) Append(ctx context.Context, rec persistence.Record) (persistence.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshot_history(id, tier, key, checksum, created_at) VALUES(?,?,?,?,?)`,
		rec.ID, rec.Tier, rec.Key, rec.Checksum, rec.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return persistence.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, id string) (persistence.Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tier, key, checksum, created_at FROM snapshot_history WHERE id = ?`, id)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Record{}, false, nil
	}
	if err != nil {
		return persistence.Record{}, false, err
	}
	return rec, true, nil
}

// List returns records for a tier (all when empty), oldest first.
func (s *Store) List(ctx context.Context, tier string) ([]persistence.Record, error) {
	query := `SELECT id, tier, key, checksum, created_at FROM snapshot_history`
	args := []any{}
	if tier != "" {
		query += ` WHERE tier = ?`
		args = append(args, tier)
	}
	query += ` ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []persistence.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func scanRecord(scan func(dest ...any) error) (persistence.Record, error) {
	var rec persistence.Record
	var created string
	if err := scan(&rec.ID, &rec.Tier, &rec.Key, &rec.Checksum, &created); err != nil {
		return persistence.Record{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return persistence.Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = ts
	return rec, nil
}
