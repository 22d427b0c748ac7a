// Package postgres persists the snapshot history ledger to PostgreSQL,
// mirroring the sqlite backend's semantics.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"tiercore/internal/persistence"
)

// Compile-time contract assertion.
var _ persistence.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/tiercore?sslmode=disable"
)

var (
	openMu  sync.Mutex
	sqlOpen = sql.Open
)

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

// Store records snapshot history rows in a single Postgres table.
type Store struct {
	db *sql.DB
}

// NewStore opens a Postgres-backed history store using the provided DSN
// (falls back to defaultDSN) and ensures the history table exists.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sqlOpen(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS snapshot_history (
		id TEXT PRIMARY KEY,
		tier TEXT NOT NULL,
		key TEXT NOT NULL,
		checksum TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{db: db}, nil
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
		`INSERT INTO snapshot_history(id, tier, key, checksum, created_at) VALUES($1,$2,$3,$4,$5)`,
		rec.ID, rec.Tier, rec.Key, rec.Checksum, rec.CreatedAt); err != nil {
		return persistence.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, id string) (persistence.Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tier, key, checksum, created_at FROM snapshot_history WHERE id = $1`, id)
	var rec persistence.Record
	err := row.Scan(&rec.ID, &rec.Tier, &rec.Key, &rec.Checksum, &rec.CreatedAt)
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
		query += ` WHERE tier = $1`
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
		var rec persistence.Record
		if err := rows.Scan(&rec.ID, &rec.Tier, &rec.Key, &rec.Checksum, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
