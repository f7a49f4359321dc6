package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis is a Store backed by a Redis client. Profile entries are plain
// string values without TTL: unlike a cache, the profile store is the system
// of record for the saved credential pair and the hardware id.
//
// Atomicity: SetAll maps to MSET and Delete to a single DEL, both of which
// Redis executes atomically, so concurrent writers never observe a
// half-written credential pair.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed profile store wrapping an existing client.
// The client should be configured with appropriate pool settings and have
// been pinged by the caller.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address()})
//	st := store.NewRedis(client)
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the value for key, or ErrNotFound if the key is absent.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("Failed to read profile entry")
		return "", fmt.Errorf("store get error: %w", err)
	}
	return value, nil
}

// Set stores a single key without expiration.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to write profile entry")
		return fmt.Errorf("store set error: %w", err)
	}
	return nil
}

// SetAll stores every entry atomically via MSET.
func (r *Redis) SetAll(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	pairs := make([]interface{}, 0, len(entries)*2)
	for k, v := range entries {
		pairs = append(pairs, k, v)
	}

	if err := r.client.MSet(ctx, pairs...).Err(); err != nil {
		log.Error().Err(err).Int("count", len(entries)).Msg("Failed to write profile entries")
		return fmt.Errorf("store mset error: %w", err)
	}

	log.Debug().Int("count", len(entries)).Msg("Wrote profile entries")
	return nil
}

// Delete removes the given keys in a single DEL command.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("Failed to delete profile entries")
		return fmt.Errorf("store delete error: %w", err)
	}
	return nil
}
