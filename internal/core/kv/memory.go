package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hay-kot/quire/pkg/kv"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

// Memory is a KV held in process memory. Values are round-tripped through
// JSON so it behaves like the sqlite store.
type Memory struct {
	data *kv.Store[string, memEntry]
	now  func() time.Time
}

var _ KV = (*Memory)(nil)

// NewMemory returns an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: kv.New[string, memEntry](), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dest any) error {
	e, ok := m.live(key)
	if !ok {
		return fmt.Errorf("kv get %q: %w", key, ErrNotFound)
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}
	return nil
}

func (m *Memory) Set(ctx context.Context, key string, value any) error {
	return m.set(key, value, time.Time{})
}

func (m *Memory) SetTTL(_ context.Context, key string, value any, ttl time.Duration) error {
	return m.set(key, value, m.now().Add(ttl))
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	_, ok := m.live(key)
	return ok, nil
}

func (m *Memory) ListKeys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for _, k := range m.data.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if _, ok := m.live(k); ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// SweepExpired drops entries whose TTL has passed.
func (m *Memory) SweepExpired(_ context.Context) (int64, error) {
	now := m.now()
	n := m.data.DeleteFunc(func(_ string, e memEntry) bool { return e.expired(now) })
	return int64(n), nil
}

func (m *Memory) set(key string, value any, expiresAt time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}
	m.data.Set(key, memEntry{value: data, expiresAt: expiresAt})
	return nil
}

func (m *Memory) live(key string) (memEntry, bool) {
	e, ok := m.data.Get(key)
	if !ok {
		return memEntry{}, false
	}
	if e.expired(m.now()) {
		m.data.Delete(key)
		return memEntry{}, false
	}
	return e, true
}
