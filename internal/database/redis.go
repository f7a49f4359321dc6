// Package database provides connection management for the service's storage
// backends. Redis backs the profile store and the login rate limiter;
// PostgreSQL is an alternative profile store backend for deployments that
// do not run Redis. Both connect with automatic retry and exponential backoff.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/pkg/config"
	"github.com/sptool/studioauth/pkg/utils"
)

// RedisDB wraps a Redis client used for the profile store and rate limiting.
type RedisDB struct {
	client *redis.Client
}

// NewRedisDB creates a new Redis connection with automatic retry.
//
// Retry configuration: 5 attempts with exponential backoff (100ms initial,
// 3s cap) inside an overall 30 second timeout.
//
// Parameters:
//   - cfg: Redis configuration including host, port, password, database, and pool size
//
// Returns the connected client or an error if all retries fail.
//
// Example:
//
//	redisDB, err := database.NewRedisDB(&cfg.Redis)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Redis connection failed")
//	}
//	defer redisDB.Close()
func NewRedisDB(cfg *config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	// Verify connection with retry
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	retryConfig := utils.DatabaseRetryConfig()
	retryConfig.InitialDelay = 100 * time.Millisecond
	retryConfig.MaxDelay = 3 * time.Second

	err := utils.Retry(ctx, retryConfig, func() error {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("Failed to ping Redis, retrying...")
			return err
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("addr", cfg.Address()).Msg("Successfully connected to Redis")

	return &RedisDB{client: client}, nil
}

// NewRedisDBFromClient wraps an existing client without connecting. Tests
// use this with miniredis.
func NewRedisDBFromClient(client *redis.Client) *RedisDB {
	return &RedisDB{client: client}
}

// Close closes the Redis connection and releases all resources.
// Should be called when shutting down the application.
func (r *RedisDB) Close() error {
	return r.client.Close()
}

// Client returns the underlying Redis client, for wiring the profile store
// or other consumers that need direct access.
func (r *RedisDB) Client() *redis.Client {
	return r.client
}

// Ping checks if Redis is alive and responsive.
// Used by health check endpoints to verify Redis availability.
func (r *RedisDB) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// IncrementRateLimit atomically increments the request counter for an
// IP/endpoint pair and returns the new count. The window TTL is set only
// when the counter is created, so the window is fixed rather than sliding.
//
// Key pattern: "ratelimit:{ip}:{endpoint}"
//
// Parameters:
//   - ctx: Context for timeout and cancellation
//   - ip: Client IP address
//   - endpoint: Endpoint identifier (e.g., "license_login")
//   - window: Rate limit window duration
//
// Returns the request count within the current window.
func (r *RedisDB) IncrementRateLimit(ctx context.Context, ip, endpoint string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", ip, endpoint)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First request in this window starts the expiry clock
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count, nil
}

// RateLimitTTL returns the remaining time in the rate limit window for an
// IP/endpoint pair, used to populate the Retry-After header.
func (r *RedisDB) RateLimitTTL(ctx context.Context, ip, endpoint string) (time.Duration, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", ip, endpoint)
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	return ttl, nil
}
