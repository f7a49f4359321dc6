package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(_ context.Context) error {
	return s.err
}

func TestHealthHandlerHealth(t *testing.T) {
	handler := NewHealthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestHealthHandlerReady(t *testing.T) {
	t.Run("all backends healthy", func(t *testing.T) {
		handler := NewHealthHandler(map[string]Pinger{
			"redis":    stubPinger{},
			"postgres": stubPinger{},
		})

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rec := httptest.NewRecorder()
		handler.Ready(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "healthy", resp.Services["redis"])
		assert.Equal(t, "healthy", resp.Services["postgres"])
	})

	t.Run("degrades when a backend is down", func(t *testing.T) {
		handler := NewHealthHandler(map[string]Pinger{
			"redis": stubPinger{err: errors.New("connection refused")},
		})

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rec := httptest.NewRecorder()
		handler.Ready(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy", resp.Services["redis"])
	})

	t.Run("no backends means always ready", func(t *testing.T) {
		handler := NewHealthHandler(nil)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rec := httptest.NewRecorder()
		handler.Ready(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
