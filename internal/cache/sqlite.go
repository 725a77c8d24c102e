package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLiteTier is a TransientCache backed by a SQLite file, so cached reads
// survive a process restart. maxEntries bounds the table; a Put of a new
// key beyond it fails with ErrQuotaExceeded.
type SQLiteTier struct {
	db         *sql.DB
	maxEntries int
}

// NewSQLiteTier opens (or creates) the SQLite cache file at path.
func NewSQLiteTier(ctx context.Context, path string, maxEntries int) (*SQLiteTier, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite cache: %w", err)
	}

	return &SQLiteTier{db: db, maxEntries: maxEntries}, nil
}

func (t *SQLiteTier) Put(ctx context.Context, key string, data []byte) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if t.maxEntries > 0 {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cache_entries WHERE key = ?)`, key).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check key: %w", err)
		}
		if !exists {
			var count int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
				return fmt.Errorf("count entries: %w", err)
			}
			if count >= t.maxEntries {
				return ErrQuotaExceeded
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache_entries (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, key, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return tx.Commit()
}

func (t *SQLiteTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := t.db.QueryRowContext(ctx, `SELECT data FROM cache_entries WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return data, true, nil
}

// DeleteAll compares the key prefix with substr so LIKE wildcards in
// prefix are taken literally.
func (t *SQLiteTier) DeleteAll(ctx context.Context, prefix string) error {
	_, err := t.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE substr(key, 1, length(?1)) = ?1`, prefix)
	if err != nil {
		return fmt.Errorf("delete prefix %s: %w", prefix, err)
	}
	return nil
}

// Close closes the underlying database.
func (t *SQLiteTier) Close() error {
	return t.db.Close()
}
