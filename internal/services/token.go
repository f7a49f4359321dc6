package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/pkg/config"
	"github.com/sptool/studioauth/pkg/store"
)

// revokedTokenPrefix namespaces revocation-list entries in the profile store.
const revokedTokenPrefix = "revoked_token:"

// TokenService issues and validates the access tokens that gate the
// authenticated API surface after a successful license login. Tokens use
// HS256 signing; revocation is a jti list kept in the profile store, checked
// on every validation.
type TokenService struct {
	secret       []byte        // Signing key (HS256)
	accessExpiry time.Duration // Access token lifetime
	profiles     store.Store   // Revocation list storage
}

// Claims are the custom claims embedded in access tokens. The standard
// RegisteredClaims.ID field carries the jti used for revocation.
type Claims struct {
	Username             string `json:"username"` // License username for display
	jwt.RegisteredClaims        // Standard claims (exp, iat, jti)
}

// AccessToken is the issued token together with its expiry, as returned to
// clients after login.
//
// JSON example:
//
//	{
//	  "access_token": "eyJhbGciOiJIUzI1NiIs...",
//	  "expires_at": "2026-08-30T22:00:00Z"
//	}
type AccessToken struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenService creates a token service over the configured secret and
// lifetime.
//
// Example:
//
//	tokenSvc := services.NewTokenService(&cfg.JWT, profileStore)
func NewTokenService(cfg *config.JWTConfig, profiles store.Store) *TokenService {
	return &TokenService{
		secret:       cfg.Secret,
		accessExpiry: cfg.AccessExpiry,
		profiles:     profiles,
	}
}

// Issue creates a signed access token for the given license username.
// Each token carries a unique jti so it can be revoked individually.
func (s *TokenService) Issue(username string) (*AccessToken, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessExpiry)

	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	log.Debug().Str("username", username).Time("expires_at", expiresAt).Msg("Issued access token")

	return &AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses and verifies a token string, returning its claims.
// Verification covers the signature, the expiry, and the revocation list.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if _, err := s.profiles.Get(ctx, revokedTokenPrefix+claims.ID); err == nil {
		return nil, ErrTokenRevoked
	} else if err != store.ErrNotFound {
		return nil, fmt.Errorf("failed to check revocation list: %w", err)
	}

	return claims, nil
}

// Revoke adds a token's jti to the revocation list, invalidating it for the
// remainder of its lifetime. Revoking an already-invalid token is an error
// (the caller should not be holding one).
//
// The stored value is the token's expiry, so an operator can sweep entries
// whose tokens have long since expired.
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.Validate(ctx, tokenString)
	if err != nil {
		return fmt.Errorf("cannot revoke: %w", err)
	}

	expiry := claims.ExpiresAt.Time.Format(time.RFC3339)
	if err := s.profiles.Set(ctx, revokedTokenPrefix+claims.ID, expiry); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}

	log.Info().Str("jti", claims.ID).Msg("Access token revoked")
	return nil
}
