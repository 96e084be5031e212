package kv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSet(t *testing.T) {
	s := New[string, int]()

	// Set and get
	s.Set("foo", 42)
	val, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	// Get non-existent
	_, ok = s.Get("bar")
	assert.False(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := New[string, string]()
	s.Set("key", "value")

	s.Delete("key")

	_, ok := s.Get("key")
	assert.False(t, ok)
}

func TestStore_DeleteFunc(t *testing.T) {
	s := New[string, int]()
	for i, k := range []string{"a", "b", "c", "d"} {
		s.Set(k, i)
	}

	n := s.DeleteFunc(func(_ string, v int) bool { return v%2 == 0 })
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Len())

	_, ok := s.Get("a")
	assert.False(t, ok)
	val, ok := s.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 1, val)
}

func TestStore_Keys(t *testing.T) {
	s := New[string, int]()
	s.Set("a", 1)
	s.Set("b", 2)

	keys := s.Keys()
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "a")
	assert.Contains(t, keys, "b")
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New[int, int]()
	var wg sync.WaitGroup

	// Concurrent writes
	for i := range 100 {
		wg.Go(func() { s.Set(i, i*2) })
	}

	// Concurrent reads
	for i := range 100 {
		wg.Go(func() { s.Get(i) })
	}

	wg.Wait()

	assert.Equal(t, 100, s.Len())
}
