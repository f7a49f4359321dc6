package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/internal/models"
	"github.com/sptool/studioauth/pkg/store"
)

// GatePolicy configures the auth store's initial gate posture and logout
// behavior. The shipped product runs with both gates open (license gate and
// Google gate disabled), so both defaults are normally true; a deployment
// that wants real gating flips them in configuration rather than in code.
type GatePolicy struct {
	DefaultLicensed      bool // Initial isLicensed state
	DefaultBypassGoogle  bool // Initial isGoogleBypassed state
	ResetLicenseOnLogout bool // Whether Logout reverts isLicensed to false
	AutoLogin            bool // Whether Bootstrap attempts startup auto-login
}

// AuthStore holds the single process-wide authentication state: the current
// license identity, the separately tracked Google identity, and the two gate
// flags. It mediates between SessionClient results and the profile store.
//
// One AuthStore exists per process, created at startup and discarded at
// process end. The Google identity survives restarts through the profile
// store; the license identity does not.
//
// Invariant: whenever the in-memory Google identity is non-nil, its JSON
// serialization is mirrored under store.GoogleProfileKey. Every state-setting
// call keeps the two in sync; on a storage failure the in-memory side is left
// untouched and the error is returned.
//
// All methods are safe for concurrent use. Multi-key persistence (the saved
// credential pair, the logout sweep) goes through single atomic store
// operations so concurrent writers never observe a half-written state.
type AuthStore struct {
	session  *SessionClient
	profiles store.Store
	policy   GatePolicy

	mu               sync.Mutex
	licenseUser      *models.LicenseIdentity
	googleUser       *models.GoogleIdentity
	isLicensed       bool
	isGoogleBypassed bool
}

// NewAuthStore creates an auth store in its default posture. No I/O happens
// here; call Bootstrap once after construction to restore persisted state.
//
// Example:
//
//	authStore := services.NewAuthStore(client, profileStore, services.GatePolicy{
//	    DefaultLicensed:     cfg.License.DefaultLicensed,
//	    DefaultBypassGoogle: cfg.License.DefaultBypassGoogle,
//	    AutoLogin:           cfg.License.AutoLogin,
//	})
//	if err := authStore.Bootstrap(ctx); err != nil {
//	    log.Warn().Err(err).Msg("Startup auto-login failed")
//	}
func NewAuthStore(session *SessionClient, profiles store.Store, policy GatePolicy) *AuthStore {
	return &AuthStore{
		session:          session,
		profiles:         profiles,
		policy:           policy,
		isLicensed:       policy.DefaultLicensed,
		isGoogleBypassed: policy.DefaultBypassGoogle,
	}
}

// Bootstrap restores persisted state at startup: first the Google identity,
// then (when the policy enables it) a single auto-login attempt with the
// saved credential pair.
//
// Returns ErrSavedSessionInvalid when a saved pair existed but no longer
// authenticates. This is advisory; the pair has been cleared and the caller
// should show the manual login form. A missing pair is not an error.
func (a *AuthStore) Bootstrap(ctx context.Context) error {
	a.RestoreGoogleIdentity(ctx)

	if !a.policy.AutoLogin {
		return nil
	}

	err := a.AttemptAutoLogin(ctx)
	if err == ErrNoSavedCredentials {
		log.Debug().Msg("No saved credentials, skipping auto-login")
		return nil
	}
	return err
}

// RestoreGoogleIdentity reads the persisted Google identity into memory.
// Malformed storage content is deleted and treated as absent; a backend read
// failure is logged and likewise treated as absent. Corruption never blocks
// startup and this method never reports an error.
func (a *AuthStore) RestoreGoogleIdentity(ctx context.Context) {
	raw, err := a.profiles.Get(ctx, store.GoogleProfileKey)
	if err != nil {
		if err != store.ErrNotFound {
			log.Warn().Err(err).Msg("Failed to read persisted Google identity")
		}
		return
	}

	var identity models.GoogleIdentity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		log.Warn().Err(err).Msg("Persisted Google identity is malformed, discarding")
		if err := a.profiles.Delete(ctx, store.GoogleProfileKey); err != nil {
			log.Warn().Err(err).Msg("Failed to remove malformed Google identity")
		}
		return
	}

	a.mu.Lock()
	a.googleUser = &identity
	a.mu.Unlock()

	log.Info().Str("email", identity.Email).Msg("Restored Google identity")
}

// SetGoogleIdentity replaces the Google identity in memory and storage as one
// operation: a non-nil identity is serialized and written, nil removes the
// stored key. If the storage side fails, memory is left unchanged and the
// error is returned, preserving the mirror invariant.
func (a *AuthStore) SetGoogleIdentity(ctx context.Context, identity *models.GoogleIdentity) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if identity == nil {
		if err := a.profiles.Delete(ctx, store.GoogleProfileKey); err != nil {
			return fmt.Errorf("failed to remove Google identity: %w", err)
		}
		a.googleUser = nil
		return nil
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to serialize Google identity: %w", err)
	}
	if err := a.profiles.Set(ctx, store.GoogleProfileKey, string(raw)); err != nil {
		return fmt.Errorf("failed to persist Google identity: %w", err)
	}

	copied := *identity
	a.googleUser = &copied

	log.Info().Str("email", identity.Email).Msg("Google identity installed")
	return nil
}

// AttemptAutoLogin retries login once using the persisted credential pair.
// Run at most once per process start, after RestoreGoogleIdentity.
//
// On success the returned identity is installed and the license gate opens.
// On failure the saved pair is deleted, so the failure does not repeat on
// every subsequent start, and ErrSavedSessionInvalid is returned. There is
// no further retry; gate state is left exactly as it was.
//
// Returns ErrNoSavedCredentials when no pair is persisted.
func (a *AuthStore) AttemptAutoLogin(ctx context.Context) error {
	username, err := a.profiles.Get(ctx, store.UsernameKey)
	if err != nil {
		if err == store.ErrNotFound {
			return ErrNoSavedCredentials
		}
		return fmt.Errorf("failed to read saved username: %w", err)
	}
	password, err := a.profiles.Get(ctx, store.LicenseKeyKey)
	if err != nil {
		if err == store.ErrNotFound {
			return ErrNoSavedCredentials
		}
		return fmt.Errorf("failed to read saved license key: %w", err)
	}

	if _, err := a.session.Init(ctx); err != nil {
		return fmt.Errorf("auto-login init failed: %w", err)
	}

	identity, err := a.session.Login(ctx, username, password)
	if err != nil {
		log.Warn().Err(err).Msg("Auto-login with saved credentials failed, clearing them")
		if delErr := a.profiles.Delete(ctx, store.CredentialKeys()...); delErr != nil {
			log.Error().Err(delErr).Msg("Failed to clear invalid saved credentials")
		}
		return ErrSavedSessionInvalid
	}

	a.mu.Lock()
	a.licenseUser = identity
	a.isLicensed = true
	a.mu.Unlock()

	log.Info().Str("username", identity.Username).Msg("Auto-login succeeded")
	return nil
}

// Login installs an identity obtained from an explicit (non-auto) successful
// SessionClient login and persists the credential pair that produced it, so
// future process starts can auto-login. The pair is written atomically:
// together or not at all.
func (a *AuthStore) Login(ctx context.Context, identity *models.LicenseIdentity, username, password string) error {
	if err := a.profiles.SetAll(ctx, map[string]string{
		store.UsernameKey:   username,
		store.LicenseKeyKey: password,
	}); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	a.mu.Lock()
	a.licenseUser = identity
	a.isLicensed = true
	a.mu.Unlock()

	log.Info().Str("username", identity.Username).Msg("License identity installed")
	return nil
}

// Logout clears the license identity, the Google identity (memory and
// storage), and the persisted credential pair, all storage keys in one
// atomic delete.
//
// Whether the license gate closes again is a policy decision: the shipped
// product leaves isLicensed untouched so the app stays usable after logout,
// and that remains the default. Set GatePolicy.ResetLicenseOnLogout to get
// the stricter behavior.
func (a *AuthStore) Logout(ctx context.Context) error {
	keys := append(store.CredentialKeys(), store.GoogleProfileKey)
	if err := a.profiles.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear persisted state: %w", err)
	}

	a.mu.Lock()
	a.licenseUser = nil
	a.googleUser = nil
	if a.policy.ResetLicenseOnLogout {
		a.isLicensed = false
	}
	a.mu.Unlock()

	log.Info().Msg("Logged out")
	return nil
}

// BypassGoogle opens the Google gate unconditionally. It has no precondition
// and cannot fail; the flag only closes again at process restart (subject to
// the configured default).
func (a *AuthStore) BypassGoogle() {
	a.mu.Lock()
	a.isGoogleBypassed = true
	a.mu.Unlock()

	log.Info().Msg("Google gate bypassed")
}

// IsLicensed reports the license gate state.
func (a *AuthStore) IsLicensed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isLicensed
}

// IsGoogleBypassed reports the Google gate state.
func (a *AuthStore) IsGoogleBypassed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isGoogleBypassed
}

// GoogleUser returns a copy of the current Google identity, or nil.
func (a *AuthStore) GoogleUser() *models.GoogleIdentity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyGoogleIdentity(a.googleUser)
}

// LicenseUser returns a copy of the current license identity, or nil.
func (a *AuthStore) LicenseUser() *models.LicenseIdentity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyLicenseIdentity(a.licenseUser)
}

// Snapshot returns a point-in-time copy of the full auth state, safe to hand
// to API consumers.
func (a *AuthStore) Snapshot() models.AuthSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return models.AuthSnapshot{
		LicenseUser:      copyLicenseIdentity(a.licenseUser),
		GoogleUser:       copyGoogleIdentity(a.googleUser),
		IsLicensed:       a.isLicensed,
		IsGoogleBypassed: a.isGoogleBypassed,
	}
}

func copyGoogleIdentity(identity *models.GoogleIdentity) *models.GoogleIdentity {
	if identity == nil {
		return nil
	}
	copied := *identity
	return &copied
}

func copyLicenseIdentity(identity *models.LicenseIdentity) *models.LicenseIdentity {
	if identity == nil {
		return nil
	}
	copied := *identity
	copied.Subscriptions = append([]models.Subscription(nil), identity.Subscriptions...)
	return &copied
}
