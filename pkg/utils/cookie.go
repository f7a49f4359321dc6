package utils

import (
	"net/http"
	"time"
)

// SetAuthCookie sets an authentication cookie with security attributes.
// HttpOnly keeps it away from scripts; Secure is enabled in production so
// the cookie only travels over HTTPS; SameSite=Lax guards against CSRF.
//
// Example:
//
//	utils.SetAuthCookie(w, "access_token", token.Token, token.ExpiresAt, cfg.IsProduction())
func SetAuthCookie(w http.ResponseWriter, name, value string, expires time.Time, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// SetAuthCookieWithMaxAge sets an authentication cookie with MaxAge instead
// of Expires. MaxAge is in seconds; useful for short-lived cookies like the
// OAuth state.
//
// Example:
//
//	utils.SetAuthCookieWithMaxAge(w, "oauth_state", state, 600, isProduction) // 10 minutes
func SetAuthCookieWithMaxAge(w http.ResponseWriter, name, value string, maxAge int, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// ClearAuthCookie clears a cookie by setting MaxAge to -1, instructing the
// browser to delete it immediately.
func ClearAuthCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
