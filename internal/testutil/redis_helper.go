package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sptool/studioauth/internal/database"
)

// NewTestRedisClient creates a Redis client connected to a fresh miniredis
// instance. Both are cleaned up with the test.
func NewTestRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

// NewTestRedisDB creates a RedisDB backed by miniredis.
func NewTestRedisDB(t *testing.T) (*miniredis.Miniredis, *database.RedisDB) {
	t.Helper()

	mr, client := NewTestRedisClient(t)
	return mr, database.NewRedisDBFromClient(client)
}
