package services

import "strings"

// CredentialVerifier is the credential-check strategy injected into the
// session client. The client trims input before calling the verifier; the
// verifier only decides whether the trimmed value matches.
//
// The split into two methods (rather than a single Verify) lets the client
// report ErrInvalidUsername and ErrInvalidPassword distinctly, which the
// login form displays differently.
//
// A real deployment replaces this with server-side verification without
// touching the session state machine above it.
type CredentialVerifier interface {
	// VerifyUsername reports whether the trimmed username is the valid one.
	// Matching is case-insensitive.
	VerifyUsername(username string) bool

	// VerifyPassword reports whether the trimmed password is the valid one.
	// Matching is case-sensitive.
	VerifyPassword(password string) bool
}

// StaticCredentials is the default CredentialVerifier: a single configured
// username/password pair compared in-process. This is the mock backend the
// studio ships with; it performs no cryptography and no network calls.
type StaticCredentials struct {
	Username string // Canonical username, matched case-insensitively
	Password string // Password, matched exactly
}

// NewStaticCredentials creates a verifier over a fixed credential pair.
//
// Example:
//
//	verifier := services.NewStaticCredentials(cfg.License.Username, cfg.License.Password)
func NewStaticCredentials(username, password string) *StaticCredentials {
	return &StaticCredentials{Username: username, Password: password}
}

// VerifyUsername matches case-insensitively against the configured username.
func (c *StaticCredentials) VerifyUsername(username string) bool {
	return strings.EqualFold(username, c.Username)
}

// VerifyPassword matches exactly against the configured password.
func (c *StaticCredentials) VerifyPassword(password string) bool {
	return password == c.Password
}
