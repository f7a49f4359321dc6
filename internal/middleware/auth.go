// Package middleware provides HTTP middleware components for the API.
// Middleware functions wrap HTTP handlers to provide cross-cutting concerns
// like authentication, logging, metrics, and rate limiting.
//
// Middleware in this package:
//   - Access token authentication for the protected surface
//   - Structured request/response logging with correlation IDs
//   - Prometheus metrics collection
//   - Rate limiting per IP address on the credential endpoints
//
// All middleware is designed to be composable with Chi router.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/internal/services"
)

// contextKey is a custom type for context keys to avoid collisions with
// other packages that might use string keys.
type contextKey string

// UsernameKey is the context key for the authenticated license username.
// Set by TokenAuth after successful token validation.
const UsernameKey contextKey = "username"

// TokenAuth creates middleware that validates access tokens and adds the
// license username to the request context. This guards the endpoints that
// only make sense after a successful license login, such as logout.
//
// Token sources (checked in order):
//  1. Authorization header: "Bearer <token>"
//  2. Cookie: access_token=<token>
//
// On failure the request is rejected with 401 Unauthorized; validation
// covers the signature, the expiry, and the revocation list.
//
// Usage:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(middleware.TokenAuth(tokenService))
//	    r.Post("/api/v1/auth/logout", authHandler.Logout)
//	})
func TokenAuth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				cookie, err := r.Cookie("access_token")
				if err != nil {
					log.Warn().Msg("Missing authorization token")
					http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
					return
				}
				tokenString = cookie.Value
			} else {
				tokenString = strings.TrimPrefix(tokenString, "Bearer ")
			}

			claims, err := tokens.Validate(r.Context(), tokenString)
			if err != nil {
				log.Warn().Err(err).Msg("Invalid token")
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UsernameKey, claims.Username)

			log.Debug().
				Str("username", claims.Username).
				Msg("Request authenticated")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsername extracts the authenticated license username from the request
// context. The boolean is false when the request did not pass through
// TokenAuth.
//
// Example:
//
//	username, ok := middleware.GetUsername(r.Context())
//	if !ok {
//	    http.Error(w, "Unauthorized", http.StatusUnauthorized)
//	    return
//	}
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}
