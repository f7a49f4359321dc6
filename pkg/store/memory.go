package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store backed by a map. It is the test double for
// the Redis and Postgres backends and a reasonable default for single-node
// development where persistence across restarts is not needed.
//
// All operations take a single lock, so multi-key writes and deletes are
// atomic with respect to concurrent readers.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

// NewMemoryFrom creates an in-memory store pre-seeded with the given entries.
// Handy in tests that need controlled initial storage contents.
//
// Example:
//
//	st := store.NewMemoryFrom(map[string]string{
//	    store.GoogleProfileKey: `{not json`,
//	})
func NewMemoryFrom(entries map[string]string) *Memory {
	m := NewMemory()
	for k, v := range entries {
		m.entries[k] = v
	}
	return m
}

// Get returns the value for key, or ErrNotFound if absent.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores a single key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value
	return nil
}

// SetAll stores every entry under one lock acquisition.
func (m *Memory) SetAll(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range entries {
		m.entries[k] = v
	}
	return nil
}

// Delete removes the given keys under one lock acquisition.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Len returns the number of stored entries. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
