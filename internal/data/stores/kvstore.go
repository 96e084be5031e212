// Package stores implements the core persistence interfaces on SQLite.
package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hay-kot/quire/internal/core/kv"
	"github.com/hay-kot/quire/internal/data/db"
)

// KVStore implements kv.KV using SQLite.
type KVStore struct {
	db *db.DB
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db}
}

type kvRow struct {
	value     []byte
	expiresAt sql.NullInt64
}

func (r kvRow) expired(now int64) bool {
	return r.expiresAt.Valid && r.expiresAt.Int64 < now
}

// Get retrieves and deserializes a value by key. Expired entries are lazily
// deleted and reported as kv.ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	row, err := s.row(ctx, key)
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}

	if err := json.Unmarshal(row.value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}

	return nil
}

// Set stores a value with no expiry.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, sql.NullInt64{})
}

// SetTTL stores a value that expires after the given duration.
func (s *KVStore) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UnixNano()
	return s.set(ctx, key, value, sql.NullInt64{Int64: expiresAt, Valid: true})
}

// Delete removes a key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// Has returns whether a key exists and is not expired.
func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.row(ctx, key)
	switch {
	case kv.IsNotFound(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("kv has %q: %w", key, err)
	}
	return true, nil
}

// ListKeys returns all non-expired keys starting with prefix in sorted order.
func (s *KVStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT key FROM kv_store
		WHERE substr(key, 1, length(?)) = ?
		  AND (expires_at IS NULL OR expires_at >= ?)
		ORDER BY key
	`, prefix, prefix, time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("kv list keys scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SweepExpired deletes all entries whose TTL has passed and returns how many
// were removed.
func (s *KVStore) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.Conn().ExecContext(ctx,
		"DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < ?",
		time.Now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("kv sweep expired: %w", err)
	}
	return res.RowsAffected()
}

func (s *KVStore) row(ctx context.Context, key string) (kvRow, error) {
	var r kvRow
	err := s.db.Conn().QueryRowContext(ctx,
		"SELECT value, expires_at FROM kv_store WHERE key = ?", key,
	).Scan(&r.value, &r.expiresAt)
	if IsNotFoundError(err) {
		return r, kv.ErrNotFound
	}
	if err != nil {
		return r, err
	}

	if r.expired(time.Now().UnixNano()) {
		_ = s.Delete(ctx, key)
		return r, kv.ErrNotFound
	}
	return r, nil
}

func (s *KVStore) set(ctx context.Context, key string, value any, expiresAt sql.NullInt64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := time.Now().UnixNano()
	err = retryBusy(ctx, func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				expires_at = excluded.expires_at,
				updated_at = excluded.updated_at
		`, key, data, expiresAt, now, now)
		return err
	})
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}

	return nil
}

// retryBusy runs fn again while SQLite reports the database as busy.
func retryBusy(ctx context.Context, fn func() error) error {
	wait := 20 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !IsBusyError(err) || attempt == 3 {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			wait *= 2
		}
	}
}
