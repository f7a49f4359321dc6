package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sptool/studioauth/pkg/store"
)

const (
	testUsername = "SP Tool"
	testPassword = "studentai2026"
)

// newTestSessionClient returns a client with zero latency over a fresh
// in-memory profile store.
func newTestSessionClient(t *testing.T) (*SessionClient, *store.Memory) {
	t.Helper()

	profiles := store.NewMemory()
	client := NewSessionClient(NewStaticCredentials(testUsername, testPassword), profiles, 0)
	return client, profiles
}

func TestSessionClientInit(t *testing.T) {
	ctx := context.Background()

	t.Run("generates a valid session id", func(t *testing.T) {
		client, _ := newTestSessionClient(t)

		sessionID, err := client.Init(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, sessionID)

		_, err = uuid.Parse(sessionID)
		assert.NoError(t, err)

		assert.True(t, client.Initialized())
		assert.Equal(t, sessionID, client.SessionID())
	})

	t.Run("is idempotent", func(t *testing.T) {
		client, _ := newTestSessionClient(t)

		first, err := client.Init(ctx)
		require.NoError(t, err)

		second, err := client.Init(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("second call skips the simulated delay", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		client.latency = 30 * time.Millisecond

		start := time.Now()
		_, err := client.Init(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

		start = time.Now()
		_, err = client.Init(ctx)
		require.NoError(t, err)
		assert.Less(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("honors context cancellation during the delay", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		client.latency = time.Minute

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := client.Init(cancelCtx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, client.Initialized())
	})
}

func TestSessionClientLoginPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("fails with ErrNotInitialized before init, even on blank input", func(t *testing.T) {
		client, _ := newTestSessionClient(t)

		_, err := client.Login(ctx, "", "x")
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("first violated precondition wins, in order", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		_, err := client.Init(ctx)
		require.NoError(t, err)

		cases := []struct {
			name     string
			username string
			password string
			want     error
		}{
			{"blank username", "   ", testPassword, ErrEmptyUsername},
			{"blank password", testUsername, "   ", ErrEmptyPassword},
			{"wrong username", "someone else", testPassword, ErrInvalidUsername},
			{"wrong password", testUsername, "wrong", ErrInvalidPassword},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := client.Login(ctx, tc.username, tc.password)
				assert.ErrorIs(t, err, tc.want)
			})
		}
	})

	t.Run("username is case-insensitive, password is case-sensitive", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		_, err := client.Init(ctx)
		require.NoError(t, err)

		identity, err := client.Login(ctx, "sp tool", testPassword)
		require.NoError(t, err)
		assert.Equal(t, "sp tool", identity.Username)

		_, err = client.Login(ctx, testUsername, "StudentAI2026")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("both fields are trimmed before comparison", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		_, err := client.Init(ctx)
		require.NoError(t, err)

		identity, err := client.Login(ctx, "  SP Tool  ", "  studentai2026  ")
		require.NoError(t, err)
		assert.Equal(t, "SP Tool", identity.Username)
	})
}

func TestSessionClientLoginIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("computes expiry two calendar years out", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		client.now = func() time.Time {
			return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
		}

		_, err := client.Init(ctx)
		require.NoError(t, err)

		identity, err := client.Login(ctx, testUsername, testPassword)
		require.NoError(t, err)

		require.Len(t, identity.Subscriptions, 1)
		sub := identity.Subscriptions[0]
		assert.Equal(t, "default", sub.Name)
		assert.Equal(t, "08/30/2028", sub.Expiry)
		// Span covers Feb 2028, a leap month
		assert.Equal(t, 731, sub.DaysLeft)

		assert.Equal(t, "08/30/2026", identity.CreateDate)
		assert.Equal(t, "08/30/2026", identity.LastLogin)
		assert.Equal(t, "127.0.0.1", identity.IP)
	})

	t.Run("days left accounts for leap years", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		client.now = func() time.Time {
			return time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
		}

		_, err := client.Init(ctx)
		require.NoError(t, err)

		identity, err := client.Login(ctx, testUsername, testPassword)
		require.NoError(t, err)
		// Jan 2025 -> Jan 2027 contains no Feb 29
		assert.Equal(t, 730, identity.Subscriptions[0].DaysLeft)
	})

	t.Run("recomputes expiry from the clock on every call", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		current := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
		client.now = func() time.Time { return current }

		_, err := client.Init(ctx)
		require.NoError(t, err)

		first, err := client.Login(ctx, testUsername, testPassword)
		require.NoError(t, err)

		current = current.AddDate(0, 0, 10)
		second, err := client.Login(ctx, testUsername, testPassword)
		require.NoError(t, err)

		assert.NotEqual(t, first.Subscriptions[0].Expiry, second.Subscriptions[0].Expiry)
	})

	t.Run("reuses the persisted hardware id", func(t *testing.T) {
		client, profiles := newTestSessionClient(t)
		require.NoError(t, profiles.Set(ctx, store.HardwareIDKey, "fixed-hwid"))

		_, err := client.Init(ctx)
		require.NoError(t, err)

		identity, err := client.Login(ctx, testUsername, testPassword)
		require.NoError(t, err)
		assert.Equal(t, "fixed-hwid", identity.HardwareID)
	})
}

func TestSessionClientRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("requires init like login", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		assert.ErrorIs(t, client.Register(ctx, testUsername, testPassword), ErrNotInitialized)
	})

	t.Run("accepts valid credentials without side effects", func(t *testing.T) {
		client, _ := newTestSessionClient(t)
		_, err := client.Init(ctx)
		require.NoError(t, err)

		require.NoError(t, client.Register(ctx, testUsername, testPassword))
		assert.ErrorIs(t, client.Register(ctx, testUsername, "nope"), ErrInvalidPassword)
	})
}

func TestSessionClientHardwareID(t *testing.T) {
	ctx := context.Background()

	t.Run("generates and persists on first call", func(t *testing.T) {
		client, profiles := newTestSessionClient(t)

		hwid, err := client.HardwareID(ctx)
		require.NoError(t, err)
		_, err = uuid.Parse(hwid)
		assert.NoError(t, err)

		stored, err := profiles.Get(ctx, store.HardwareIDKey)
		require.NoError(t, err)
		assert.Equal(t, hwid, stored)
	})

	t.Run("is stable across calls and callable before init", func(t *testing.T) {
		client, _ := newTestSessionClient(t)

		first, err := client.HardwareID(ctx)
		require.NoError(t, err)
		second, err := client.HardwareID(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.False(t, client.Initialized())
	})
}
