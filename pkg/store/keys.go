// Package store provides the well-known profile store keys.
// The key names are a compatibility surface: they mirror the localStorage
// layout of the original studio frontend, so a migration can copy entries
// over verbatim. Renaming any of them changes externally observable
// auto-login behavior.
package store

// Profile store key layout.
const (
	// GoogleProfileKey holds the JSON serialization of the Google identity.
	// Present iff a Google identity is installed; removed on logout.
	GoogleProfileKey = "google_user_profile"

	// UsernameKey and LicenseKeyKey hold the saved credential pair that
	// drives startup auto-login. They are written together or not at all.
	//
	// Storing a recoverable credential is a documented weakness inherited
	// from the original design; it is kept because removing it changes the
	// observable auto-login contract.
	UsernameKey   = "username"
	LicenseKeyKey = "license_key"

	// HardwareIDKey holds the stable random identifier reported as the
	// hardware id field of the license identity. Generated once on first use.
	HardwareIDKey = "keyauth_hwid"
)

// CredentialKeys returns the keys that make up the saved credential pair.
// Callers that clear saved credentials should delete both in one operation.
func CredentialKeys() []string {
	return []string{UsernameKey, LicenseKeyKey}
}
