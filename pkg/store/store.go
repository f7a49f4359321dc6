// Package store provides the profile store: a small key-value persistence
// capability behind an interface, so the authentication layer never touches a
// concrete backend directly. The browser frontend this service replaced kept
// the same data in localStorage; here the store is server-side and pluggable.
//
// Backends:
//   - Memory: process-local map, used in tests and single-node development
//   - Redis: go-redis backed, shared across instances
//   - Postgres: SQL backed, for deployments without Redis
//
// Multi-key writes and deletes are atomic on every backend (MSET/DEL on
// Redis, a transaction on Postgres, a single lock on Memory) so values that
// must be stored "together or not at all", like the saved credential pair,
// never half-persist under concurrent writers.
package store

import (
	"context"
	"fmt"
)

// Store is the profile store capability injected into the auth layer.
// Values are plain strings; callers that need structure serialize to JSON
// before Set and parse after Get.
type Store interface {
	// Get returns the value for key, or ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a single key. The value persists until deleted; the profile
	// store carries no TTL semantics.
	Set(ctx context.Context, key, value string) error

	// SetAll stores every entry in a single atomic write. Either all entries
	// are visible afterwards or none are.
	SetAll(ctx context.Context, entries map[string]string) error

	// Delete removes the given keys in a single atomic operation. Deleting an
	// absent key is not an error.
	Delete(ctx context.Context, keys ...string) error
}

// prefixed wraps a Store and namespaces every key with a fixed prefix.
// Used when several deployments share one Redis database.
type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix returns a Store whose keys are all namespaced as "prefix:key".
// An empty prefix returns the inner store unchanged.
//
// Example:
//
//	st := store.WithPrefix("studio", redisStore)
//	st.Set(ctx, store.HardwareIDKey, hwid) // writes "studio:keyauth_hwid"
func WithPrefix(prefix string, inner Store) Store {
	if prefix == "" {
		return inner
	}
	return &prefixed{inner: inner, prefix: prefix}
}

func (p *prefixed) key(k string) string {
	return fmt.Sprintf("%s:%s", p.prefix, k)
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.key(key))
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.key(key), value)
}

func (p *prefixed) SetAll(ctx context.Context, entries map[string]string) error {
	namespaced := make(map[string]string, len(entries))
	for k, v := range entries {
		namespaced[p.key(k)] = v
	}
	return p.inner.SetAll(ctx, namespaced)
}

func (p *prefixed) Delete(ctx context.Context, keys ...string) error {
	namespaced := make([]string, 0, len(keys))
	for _, k := range keys {
		namespaced = append(namespaced, p.key(k))
	}
	return p.inner.Delete(ctx, namespaced...)
}
