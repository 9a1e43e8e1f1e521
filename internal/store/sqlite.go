package store

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
)

const defaultKey = "tourflow.workspace"

// SQLitePersister stores the snapshot as one JSON value in a key-value table.
type SQLitePersister struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens (or creates) the database file at path, creating its
// parent directory on first use.
func OpenSQLite(ctx context.Context, path string) (*SQLitePersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; sqlite serialises anyway
	db.SetMaxOpenConns(1)
	p, err := NewSQLitePersister(ctx, db, defaultKey)
	if err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func NewSQLitePersister(ctx context.Context, db *sql.DB, key string) (*SQLitePersister, error) {
	const ddl = `CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLitePersister{db: db, key: key}, nil
}

func (p *SQLitePersister) Load(ctx context.Context) (Snapshot, bool, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, p.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

func (p *SQLitePersister) Save(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		p.key, raw, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (p *SQLitePersister) Close() error { return p.db.Close() }
