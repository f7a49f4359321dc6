package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sptool/studioauth/internal/services"
	"github.com/sptool/studioauth/pkg/config"
	"github.com/sptool/studioauth/pkg/store"
)

func newTestTokenService(t *testing.T) *services.TokenService {
	t.Helper()

	return services.NewTokenService(&config.JWTConfig{
		Secret:       []byte("test-secret-key-that-is-long-enough!"),
		AccessExpiry: time.Hour,
	}, store.NewMemory())
}

// protectedHandler echoes the authenticated username from the context.
func protectedHandler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := GetUsername(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(username))
	})
}

func TestTokenAuth(t *testing.T) {
	tokens := newTestTokenService(t)
	handler := TokenAuth(tokens)(protectedHandler(t))

	t.Run("accepts a bearer token", func(t *testing.T) {
		token, err := tokens.Issue("SP Tool")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+token.Token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "SP Tool", rec.Body.String())
	})

	t.Run("accepts a cookie token", func(t *testing.T) {
		token, err := tokens.Issue("SP Tool")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token.Token})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a revoked token", func(t *testing.T) {
		token, err := tokens.Issue("SP Tool")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+token.Token)
		require.NoError(t, tokens.Revoke(req.Context(), token.Token))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetUsername(t *testing.T) {
	t.Run("absent without the middleware", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		_, ok := GetUsername(req.Context())
		assert.False(t, ok)
	})
}
