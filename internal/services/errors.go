// Package services defines the error taxonomy of the authentication layer.
// Every failure is a tagged sentinel value returned to the caller; no
// operation panics or hides an error behind a boolean. Callers branch with
// errors.Is and map sentinels to user-facing messages at the HTTP boundary.
package services

import "errors"

// Session client errors, in precondition-check order.
var (
	// ErrNotInitialized indicates an operation requiring a prior Init was
	// called before one completed. Checked before any input validation, so
	// a blank username against an uninitialized client still reports this.
	ErrNotInitialized = errors.New("session not initialized")

	// ErrEmptyUsername indicates the username was blank after trimming.
	ErrEmptyUsername = errors.New("username must not be empty")

	// ErrEmptyPassword indicates the password was blank after trimming.
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrInvalidUsername indicates a present username that does not match the
	// configured credential (case-insensitive comparison).
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidPassword indicates a present password that does not match the
	// configured credential (case-sensitive comparison).
	ErrInvalidPassword = errors.New("invalid password")
)

// Auth store errors.
var (
	// ErrSavedSessionInvalid indicates the startup auto-login with the
	// persisted credential pair failed. The pair has already been cleared by
	// the time this is returned, so the failure does not repeat on every
	// subsequent start. Advisory: the caller shows the manual login form.
	ErrSavedSessionInvalid = errors.New("saved session is no longer valid, please log in again")

	// ErrNoSavedCredentials indicates auto-login found no persisted pair.
	// Not a failure; callers usually log it at debug level and move on.
	ErrNoSavedCredentials = errors.New("no saved credentials")
)

// Token errors.
var (
	// ErrTokenRevoked indicates a structurally valid token whose jti is on
	// the revocation list.
	ErrTokenRevoked = errors.New("token has been revoked")
)
