package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jacentio/barrel/store"
)

type memoryEntry struct {
	doc     store.Document
	expires time.Time
}

// Memory is an in-process Engine evicting the least recently used entry
// once full. Documents are copied in and out, so callers may mutate what
// they get without affecting the cache.
type Memory struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemory creates a Memory engine holding at most size entries.
func NewMemory(size int) (*Memory, error) {
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

// Get implements Engine. Expired entries are evicted and reported missing.
func (m *Memory) Get(_ context.Context, key string) (store.Document, bool, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return store.Clone(e.doc), true, nil
}

// Set implements Engine.
func (m *Memory) Set(_ context.Context, key string, doc store.Document, ttl time.Duration) error {
	e := memoryEntry{doc: store.Clone(doc)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries.Add(key, e)
	return nil
}

// DeleteMany implements Engine.
func (m *Memory) DeleteMany(_ context.Context, keys []string) error {
	for _, key := range keys {
		m.entries.Remove(key)
	}
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	return m.entries.Len()
}
