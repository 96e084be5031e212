// Package kv defines the key/value persistence used for preferences and
// per-document user data.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is missing or expired.
var ErrNotFound = errors.New("key not found")

// KV is a persistent key-value store. Keys are strings, values are
// JSON-serializable.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	// ListKeys returns the live keys starting with prefix, sorted.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
