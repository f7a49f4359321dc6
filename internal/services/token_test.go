package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sptool/studioauth/pkg/config"
	"github.com/sptool/studioauth/pkg/store"
)

func newTestTokenService(t *testing.T) (*TokenService, *store.Memory) {
	t.Helper()

	profiles := store.NewMemory()
	svc := NewTokenService(&config.JWTConfig{
		Secret:       []byte("test-secret-key-that-is-long-enough!"),
		AccessExpiry: time.Hour,
	}, profiles)
	return svc, profiles
}

func TestTokenServiceIssueAndValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip preserves claims", func(t *testing.T) {
		svc, _ := newTestTokenService(t)

		token, err := svc.Issue(testUsername)
		require.NoError(t, err)
		assert.NotEmpty(t, token.Token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

		claims, err := svc.Validate(ctx, token.Token)
		require.NoError(t, err)
		assert.Equal(t, testUsername, claims.Username)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("each token gets a distinct jti", func(t *testing.T) {
		svc, _ := newTestTokenService(t)

		first, err := svc.Issue(testUsername)
		require.NoError(t, err)
		second, err := svc.Issue(testUsername)
		require.NoError(t, err)

		ctx := context.Background()
		firstClaims, err := svc.Validate(ctx, first.Token)
		require.NoError(t, err)
		secondClaims, err := svc.Validate(ctx, second.Token)
		require.NoError(t, err)
		assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		svc, _ := newTestTokenService(t)

		_, err := svc.Validate(ctx, "not.a.token")
		assert.Error(t, err)
	})

	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		svc, _ := newTestTokenService(t)

		other := NewTokenService(&config.JWTConfig{
			Secret:       []byte("a-completely-different-secret-value!"),
			AccessExpiry: time.Hour,
		}, store.NewMemory())

		token, err := other.Issue(testUsername)
		require.NoError(t, err)

		_, err = svc.Validate(ctx, token.Token)
		assert.Error(t, err)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		profiles := store.NewMemory()
		svc := NewTokenService(&config.JWTConfig{
			Secret:       []byte("test-secret-key-that-is-long-enough!"),
			AccessExpiry: -time.Minute,
		}, profiles)

		token, err := svc.Issue(testUsername)
		require.NoError(t, err)

		_, err = svc.Validate(ctx, token.Token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})
}

func TestTokenServiceRevoke(t *testing.T) {
	ctx := context.Background()

	t.Run("revoked token no longer validates", func(t *testing.T) {
		svc, _ := newTestTokenService(t)

		token, err := svc.Issue(testUsername)
		require.NoError(t, err)
		require.NoError(t, svc.Revoke(ctx, token.Token))

		_, err = svc.Validate(ctx, token.Token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("revocation is per token, not per user", func(t *testing.T) {
		svc, _ := newTestTokenService(t)

		revoked, err := svc.Issue(testUsername)
		require.NoError(t, err)
		kept, err := svc.Issue(testUsername)
		require.NoError(t, err)

		require.NoError(t, svc.Revoke(ctx, revoked.Token))

		_, err = svc.Validate(ctx, kept.Token)
		assert.NoError(t, err)
	})

	t.Run("refuses to revoke an invalid token", func(t *testing.T) {
		svc, _ := newTestTokenService(t)
		assert.Error(t, svc.Revoke(ctx, "not.a.token"))
	})
}
