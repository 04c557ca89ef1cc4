// Package storage keeps session scopes in a local SQLite file.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const opTimeout = 5 * time.Second

// SQLiteStore is a scoped key/value table.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates the database file and its directory if needed and applies
// migrations.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of concurrent CLI goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Scope returns a handle on one named scope. Handles are cheap.
func (s *SQLiteStore) Scope(name string) *Scope {
	return &Scope{db: s.db, name: name}
}

// DropScope deletes every key in the named scope.
func (s *SQLiteStore) DropScope(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ?`, name); err != nil {
		return fmt.Errorf("drop scope %s: %w", name, err)
	}
	return nil
}

// PruneScopes removes rows of scopes matching pattern (SQL LIKE) that were not
// touched since cutoff. It returns the number of rows removed.
func (s *SQLiteStore) PruneScopes(ctx context.Context, pattern string, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE scope LIKE ? AND updated_at < ?`,
		pattern, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("prune scopes: %w", err)
	}
	return res.RowsAffected()
}

// Scope is one named scope in the kv table.
type Scope struct {
	db   *sql.DB
	name string
}

func (sc *Scope) Name() string { return sc.name }

func (sc *Scope) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var value string
	err := sc.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope = ? AND key = ?`, sc.name, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s/%s: %w", sc.name, key, err)
	}
	return value, true, nil
}

func (sc *Scope) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := sc.db.ExecContext(ctx, `
		INSERT INTO kv (scope, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		sc.name, key, value)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", sc.name, key, err)
	}
	return nil
}

func (sc *Scope) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := sc.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, sc.name, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", sc.name, key, err)
	}
	return nil
}
