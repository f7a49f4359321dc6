package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/internal/database"
	"github.com/sptool/studioauth/pkg/utils"
)

// RateLimiter implements distributed rate limiting using Redis. It protects
// the credential endpoints from brute-force noise by limiting the number of
// requests per IP address within a time window.
//
// Redis key pattern: "ratelimit:{ip}:{endpoint}" with TTL equal to window.
//
// On limit exceeded:
//   - Returns 429 Too Many Requests
//   - Sets Retry-After header
//   - Logs the violation for monitoring
type RateLimiter struct {
	redis          *database.RedisDB // Redis for distributed counters
	requestsPerMin int               // Maximum requests allowed per window
	window         time.Duration     // Time window for rate limiting
}

// NewRateLimiter creates a rate limiter over the given Redis connection.
//
// Example:
//
//	// Allow 30 login attempts per minute per IP
//	limiter := middleware.NewRateLimiter(redisDB, 30, time.Minute)
//	r.With(limiter.Limit("login")).Post("/api/v1/license/login", handler.Login)
func NewRateLimiter(redis *database.RedisDB, requestsPerMin int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:          redis,
		requestsPerMin: requestsPerMin,
		window:         window,
	}
}

// Limit creates middleware that applies rate limiting to an endpoint. Each
// endpoint gets an independent counter through its identifier.
//
// Rate limit headers:
//   - X-RateLimit-Limit: Maximum requests allowed per window
//   - X-RateLimit-Remaining: Requests remaining in current window
//   - Retry-After: Seconds until the window resets (on 429 only)
//
// On Redis errors the request is allowed through; a broken limiter must not
// lock out legitimate users.
func (rl *RateLimiter) Limit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ExtractClientIP(r)

			count, err := rl.redis.IncrementRateLimit(r.Context(), ip, endpoint, rl.window)
			if err != nil {
				log.Error().Err(err).Str("ip", ip).Msg("Failed to check rate limit")
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(rl.requestsPerMin) {
				log.Warn().
					Str("ip", ip).
					Str("endpoint", endpoint).
					Int64("count", count).
					Msg("Rate limit exceeded")

				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requestsPerMin))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))

				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			remaining := rl.requestsPerMin - int(count)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requestsPerMin))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

			next.ServeHTTP(w, r)
		})
	}
}
