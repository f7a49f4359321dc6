// Package models defines the core domain models for the application.
// These models represent the identities and entitlement records tracked by
// the authentication layer: the license identity returned by a successful
// credential check, the separately persisted Google display identity, and
// the process-wide authentication state exposed to API consumers.
//
// All models include JSON struct tags for serialization. The credential pair
// itself never appears in any of these types; it is persisted separately by
// the auth store under dedicated profile-store keys.
package models

import "time"

// Subscription represents a single entitlement attached to a license identity.
// The validation backend returns one subscription per product tier; this
// service's mock verifier always returns exactly one named "default".
//
// Expiry is a locale date string ("MM/DD/YYYY") rather than a time.Time
// because that is the wire format the studio frontend displays verbatim.
// DaysLeft is derived from the same instant the expiry was computed:
// ceil((expiry - now) in milliseconds / 86,400,000).
//
// JSON example:
//
//	{
//	  "subscription_name": "default",
//	  "expiry": "08/30/2028",
//	  "days_left": 730
//	}
type Subscription struct {
	Name     string `json:"subscription_name"` // Product tier name
	Expiry   string `json:"expiry"`            // Expiry date as "MM/DD/YYYY"
	DaysLeft int    `json:"days_left"`         // Whole days until expiry, rounded up
}

// LicenseIdentity is the authenticated user record produced by a successful
// license login. It carries the display username (the caller-supplied casing,
// not the canonical configured value), the subscription list, and a stable
// hardware identifier used for display and telemetry only.
//
// A LicenseIdentity is recomputed on every login: the expiry fields reflect
// the wall clock at the moment of the call, so two logins seconds apart may
// differ marginally in DaysLeft.
//
// JSON example:
//
//	{
//	  "username": "SP Tool",
//	  "subscriptions": [{"subscription_name": "default", "expiry": "08/30/2028", "days_left": 730}],
//	  "hardware_id": "550e8400-e29b-41d4-a716-446655440000",
//	  "ip": "127.0.0.1",
//	  "create_date": "08/30/2026",
//	  "last_login": "08/30/2026"
//	}
type LicenseIdentity struct {
	Username      string         `json:"username"`      // Display casing as typed by the user (trimmed)
	Subscriptions []Subscription `json:"subscriptions"` // Entitlements; exactly one in the mock backend
	HardwareID    string         `json:"hardware_id"`   // Stable per-deployment identifier
	IP            string         `json:"ip"`            // Placeholder client address
	CreateDate    string         `json:"create_date"`   // Placeholder account creation date
	LastLogin     string         `json:"last_login"`    // Placeholder last login date
}

// GoogleIdentity is the display identity obtained from Google sign-in.
// It is independent of the license identity: a user may carry either, both,
// or neither. When present it is mirrored byte-for-byte (as JSON) in the
// profile store and survives process restarts; the license identity does not.
//
// JSON example:
//
//	{
//	  "name": "Jane Doe",
//	  "email": "jane@example.com",
//	  "picture": "https://lh3.googleusercontent.com/..."
//	}
type GoogleIdentity struct {
	Name    string `json:"name"`    // Display name from the Google profile
	Email   string `json:"email"`   // Email address from the Google profile
	Picture string `json:"picture"` // Profile picture URL
}

// AuthSnapshot is a point-in-time copy of the process-wide authentication
// state, safe to hand to API consumers. Identity pointers are copies; mutating
// a snapshot never affects the live store.
type AuthSnapshot struct {
	LicenseUser      *LicenseIdentity `json:"license_user"`       // Current license identity, nil if not logged in
	GoogleUser       *GoogleIdentity  `json:"google_user"`        // Current Google identity, nil if absent
	IsLicensed       bool             `json:"is_licensed"`        // License gate state
	IsGoogleBypassed bool             `json:"is_google_bypassed"` // Google gate state
}

// SessionInfo describes an established mock session for telemetry endpoints.
// The session id carries no server-verified meaning; it only marks that a
// client-side connection handshake completed.
type SessionInfo struct {
	SessionID  string    `json:"session_id"`  // Opaque session identifier
	DeviceInfo string    `json:"device_info"` // Parsed User-Agent string
	IPAddress  string    `json:"ip_address"`  // Client IP at establishment
	CreatedAt  time.Time `json:"created_at"`  // When the session was established
}
