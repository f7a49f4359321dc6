// Package services provides the business logic of the authentication layer:
// the mock license/session client, the process-wide auth state store, the
// Google OAuth flow, and access token management.
//
// The services layer is responsible for:
//   - Session establishment and credential checking (mock backend)
//   - Process-wide authentication state and its persistence
//   - Google sign-in producing the persisted Google identity
//   - Access token issue, validation, and revocation
package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/internal/models"
	"github.com/sptool/studioauth/pkg/store"
)

// dateFormat is the locale date layout ("MM/DD/YYYY") the studio frontend
// renders verbatim in subscription and account fields.
const dateFormat = "01/02/2006"

// subscriptionYears is how far the mock backend pushes the entitlement
// expiry on every login: two calendar years from the current wall clock.
const subscriptionYears = 2

// localAddress is the placeholder reported in the identity's ip field.
// The mock backend never sees a real network, so there is nothing truthful
// to report here.
const localAddress = "127.0.0.1"

// SessionClient models a minimal session-establishment and credential-check
// protocol suitable for gating UI access. It is a mock: "service calls" are
// in-process with a simulated round-trip delay, and the entitlement record
// it returns is fabricated from the wall clock.
//
// State machine: Uninitialized -> Initialized, a single one-way transition
// driven by Init. There is no teardown; the client lives for the process
// lifetime. Login and Register are guarded operations valid only in the
// Initialized state and fail deterministically with ErrNotInitialized before
// it, never blocking or queuing.
//
// The client keeps no logged-in flag; ownership of "who is logged in" belongs
// to AuthStore. Retry is also the caller's responsibility; no operation
// retries internally.
type SessionClient struct {
	verifier CredentialVerifier // Injected credential-check strategy
	profiles store.Store        // Backing store for the persisted hardware id
	latency  time.Duration      // Simulated round trip per operation

	// Injectable clock, overridden in tests for deterministic expiry math.
	now func() time.Time

	mu          sync.Mutex
	initialized bool
	sessionID   string
}

// NewSessionClient creates a session client in the Uninitialized state.
//
// Parameters:
//   - verifier: Credential-check strategy (StaticCredentials in this mock)
//   - profiles: Profile store holding the persisted hardware id
//   - latency: Simulated network round trip per operation; 0 disables the
//     delay, which tests use for determinism
//
// Example:
//
//	client := services.NewSessionClient(
//	    services.NewStaticCredentials(cfg.License.Username, cfg.License.Password),
//	    profileStore,
//	    cfg.License.Latency,
//	)
func NewSessionClient(verifier CredentialVerifier, profiles store.Store, latency time.Duration) *SessionClient {
	return &SessionClient{
		verifier: verifier,
		profiles: profiles,
		latency:  latency,
		now:      time.Now,
	}
}

// Init establishes the mock session. On first call it waits out the simulated
// round trip, generates a fresh random session id, and transitions the client
// to Initialized. Subsequent calls are idempotent: they return the existing
// session id immediately, without delay and without regenerating it.
//
// The mock backend cannot fail Init for any input; the error return exists
// because a real implementation must surface network and service failures
// here, and because the simulated delay honors context cancellation.
//
// Example:
//
//	sessionID, err := client.Init(ctx)
//	if err != nil {
//	    return fmt.Errorf("session init failed: %w", err)
//	}
func (c *SessionClient) Init(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.initialized {
		id := c.sessionID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	if err := c.simulateRoundTrip(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A concurrent Init may have won the race while we slept.
	if c.initialized {
		return c.sessionID, nil
	}

	c.sessionID = uuid.New().String()
	c.initialized = true

	log.Info().
		Str("session_id", c.sessionID).
		Msg("Session established")

	return c.sessionID, nil
}

// Login checks a credential pair and, on success, synthesizes a fresh
// license identity. Preconditions are checked in a fixed order and the first
// violated one wins:
//
//  1. the client is initialized, else ErrNotInitialized
//  2. trimmed username non-empty, else ErrEmptyUsername
//  3. trimmed password non-empty, else ErrEmptyPassword
//  4. trimmed username matches (case-insensitive), else ErrInvalidUsername
//  5. trimmed password matches (case-sensitive), else ErrInvalidPassword
//
// All outcomes, success and failure alike, resolve after the simulated
// round-trip delay.
//
// The returned identity carries the caller-supplied (trimmed) casing of the
// username, exactly one subscription named "default" expiring two calendar
// years from now, and the persisted hardware id. The expiry is recomputed
// from the wall clock on every call, so repeated logins are idempotent in
// effect but not bit-for-bit identical in value.
//
// Login mutates no client state; installing the identity into the process
// auth state is AuthStore's job.
//
// Example:
//
//	identity, err := client.Login(ctx, username, password)
//	switch {
//	case errors.Is(err, services.ErrInvalidUsername),
//	    errors.Is(err, services.ErrInvalidPassword):
//	    // show credential error
//	case err != nil:
//	    // infrastructure failure
//	}
func (c *SessionClient) Login(ctx context.Context, username, password string) (*models.LicenseIdentity, error) {
	if err := c.checkCredentials(ctx, username, password); err != nil {
		return nil, err
	}

	hardwareID, err := c.HardwareID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hardware id: %w", err)
	}

	now := c.now()
	expiry := now.AddDate(subscriptionYears, 0, 0)
	today := now.Format(dateFormat)

	identity := &models.LicenseIdentity{
		Username: strings.TrimSpace(username),
		Subscriptions: []models.Subscription{{
			Name:     "default",
			Expiry:   expiry.Format(dateFormat),
			DaysLeft: daysUntil(now, expiry),
		}},
		HardwareID: hardwareID,
		IP:         localAddress,
		CreateDate: today,
		LastLogin:  today,
	}

	log.Info().
		Str("username", identity.Username).
		Int("days_left", identity.Subscriptions[0].DaysLeft).
		Msg("License login succeeded")

	return identity, nil
}

// Register runs the same precondition chain as Login but returns no identity
// payload. It exists to mirror the real validation API's surface; nothing in
// the rest of the system consumes its effect.
func (c *SessionClient) Register(ctx context.Context, username, password string) error {
	if err := c.checkCredentials(ctx, username, password); err != nil {
		return err
	}

	log.Info().
		Str("username", strings.TrimSpace(username)).
		Msg("License registration accepted")

	return nil
}

// HardwareID returns the stable random identifier reported in license
// identities, generating and persisting one on first use. Safe to call
// before Init; the hardware id is a property of the deployment, not of any
// session.
func (c *SessionClient) HardwareID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hwid, err := c.profiles.Get(ctx, store.HardwareIDKey)
	if err == nil {
		return hwid, nil
	}
	if err != store.ErrNotFound {
		return "", fmt.Errorf("failed to read hardware id: %w", err)
	}

	hwid = uuid.New().String()
	if err := c.profiles.Set(ctx, store.HardwareIDKey, hwid); err != nil {
		return "", fmt.Errorf("failed to persist hardware id: %w", err)
	}

	log.Info().Str("hardware_id", hwid).Msg("Generated hardware id")
	return hwid, nil
}

// Initialized reports whether Init has completed.
func (c *SessionClient) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// SessionID returns the established session id, or the empty string before
// Init. Non-empty iff Initialized reports true.
func (c *SessionClient) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// checkCredentials runs the shared Login/Register precondition chain after
// the simulated round trip.
func (c *SessionClient) checkCredentials(ctx context.Context, username, password string) error {
	if err := c.simulateRoundTrip(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" {
		return ErrEmptyUsername
	}
	if password == "" {
		return ErrEmptyPassword
	}
	if !c.verifier.VerifyUsername(username) {
		return ErrInvalidUsername
	}
	if !c.verifier.VerifyPassword(password) {
		return ErrInvalidPassword
	}

	return nil
}

// simulateRoundTrip blocks for the configured latency, honoring context
// cancellation. The mock client itself enforces no timeout; a real network
// client must add one.
func (c *SessionClient) simulateRoundTrip(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("session call cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// daysUntil computes whole days between two instants, rounded up, using the
// millisecond arithmetic of the original backend: ceil(delta_ms / 86,400,000).
// Over a two-calendar-year span this lands on 730 or 731 depending on leap
// years.
func daysUntil(from, to time.Time) int {
	deltaMillis := to.Sub(from).Milliseconds()
	return int(math.Ceil(float64(deltaMillis) / 86_400_000.0))
}
