package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sptool/studioauth/internal/models"
	"github.com/sptool/studioauth/pkg/config"
)

// defaultUserInfoURL is Google's UserInfo API endpoint.
const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth handles the Google OAuth 2.0 sign-in flow that produces the
// studio's Google display identity. The flow covers authorization URL
// generation, code exchange, and profile retrieval; the resulting identity
// is installed into the AuthStore by the HTTP layer, not here.
//
// The identity obtained this way is display-only: it grants nothing and is
// independent of the license identity.
type GoogleOAuth struct {
	config      *oauth2.Config // OAuth configuration with client credentials
	userInfoURL string         // Profile endpoint, overridable in tests
}

// googleUserInfo mirrors the response of Google's UserInfo API; only the
// fields the studio displays are decoded.
type googleUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// NewGoogleOAuth creates an OAuth service configured for Google sign-in with
// profile and email scopes.
//
// Example:
//
//	oauthSvc := services.NewGoogleOAuth(&cfg.OAuth)
func NewGoogleOAuth(cfg *config.OAuthConfig) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
	}
}

// AuthURL generates the Google authorization URL for the consent screen.
//
// Parameters:
//   - state: Random string for CSRF protection; must be verified in the callback.
func (s *GoogleOAuth) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Authenticate completes the sign-in flow: it exchanges the authorization
// code for a token and fetches the profile, returning the display identity.
//
// Example:
//
//	identity, err := oauthSvc.Authenticate(ctx, r.URL.Query().Get("code"))
//	if err != nil {
//	    return fmt.Errorf("google sign-in failed: %w", err)
//	}
//	if err := authStore.SetGoogleIdentity(ctx, identity); err != nil { ... }
func (s *GoogleOAuth) Authenticate(ctx context.Context, code string) (*models.GoogleIdentity, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("Failed to exchange authorization code")
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := s.config.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch user info from Google")
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user info: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		log.Error().Err(err).Msg("Failed to decode user info")
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	log.Info().Str("email", info.Email).Msg("Google sign-in completed")

	return &models.GoogleIdentity{
		Name:    info.Name,
		Email:   info.Email,
		Picture: info.Picture,
	}, nil
}

// GenerateState creates a cryptographically random state string for OAuth
// CSRF protection. Generated before redirecting to the consent screen,
// stored in a cookie, and validated in the callback.
//
// Returns a URL-safe base64-encoded string of 16 random bytes.
func GenerateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
