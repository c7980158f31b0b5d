package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ganot/quotagate/internal/repository"
)

// KVStore implements repository.KeyValueStore for SQLite
type KVStore struct {
	db *DB
}

// NewKVStore creates a new KVStore
func NewKVStore(db *DB) *KVStore {
	return &KVStore{db: db}
}

// Get returns the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, repository.ErrInvalidInput
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("failed to get value", err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return repository.ErrInvalidInput
	}

	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return wrapErr("failed to set value", err)
	}
	return nil
}
