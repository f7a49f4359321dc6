// Package utils provides common utility functions for HTTP response handling,
// request ID management, and client IP extraction. It includes standardized
// response formats with automatic request ID injection for tracing.
package utils

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// requestIDKey is the context key for request ID
const requestIDKey contextKey = "request_id"

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if the context is nil or no request ID is present.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds a request ID to the context for request tracing.
// This is typically called by the logging middleware.
//
// Example:
//
//	ctx := utils.WithRequestID(r.Context(), uuid.New().String())
//	r = r.WithContext(ctx)
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ErrorResponse represents a standard error response structure.
// It includes the HTTP status text, a custom message, and a request ID for tracing.
type ErrorResponse struct {
	Error     string `json:"error"`                // HTTP status text (e.g., "Bad Request")
	Message   string `json:"message,omitempty"`    // Detailed error message
	RequestID string `json:"request_id,omitempty"` // Request ID for tracing
}

// MessageResponse is a minimal response carrying only a status message.
type MessageResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondWithError sends a JSON error response with automatic request ID
// extraction from the request context.
//
// Example:
//
//	if identity == nil {
//	    utils.RespondWithError(w, r, http.StatusUnauthorized, "invalid credentials")
//	    return
//	}
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: GetRequestID(r.Context()),
	}
	writeJSON(w, statusCode, response, response.RequestID)
}

// RespondWithJSON sends a JSON response with the given status code and data.
//
// Example:
//
//	utils.RespondWithJSON(w, r, http.StatusOK, map[string]string{
//	    "session_id": sessionID,
//	})
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	writeJSON(w, statusCode, data, GetRequestID(r.Context()))
}

// RespondWithMessage sends a simple message response with the given status code.
// Useful for endpoints that only need to acknowledge an action.
//
// Example:
//
//	utils.RespondWithMessage(w, r, http.StatusOK, "logged out")
func RespondWithMessage(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	requestID := GetRequestID(r.Context())
	writeJSON(w, statusCode, MessageResponse{Message: message, RequestID: requestID}, requestID)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("Failed to encode JSON response")
	}
}
