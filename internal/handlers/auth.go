package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/internal/middleware"
	"github.com/sptool/studioauth/internal/models"
	"github.com/sptool/studioauth/internal/services"
	"github.com/sptool/studioauth/pkg/utils"
)

// OAuthService defines the Google sign-in operations the HTTP layer uses.
type OAuthService interface {
	AuthURL(state string) string
	Authenticate(ctx context.Context, code string) (*models.GoogleIdentity, error)
}

// AuthHandler handles the process auth state endpoints: the gate snapshot,
// the Google bypass, logout, and the Google OAuth sign-in flow.
type AuthHandler struct {
	authState            AuthState
	oauth                OAuthService // nil when Google sign-in is not configured
	tokens               TokenIssuer
	isProduction         bool
	postLoginRedirectURL string // Where the OAuth callback sends the browser
}

// NewAuthHandler creates an auth state handler with its dependencies. Pass a
// nil oauth service when Google sign-in is not configured; the caller is
// expected to not mount the Google routes in that case.
//
// Example:
//
//	authHandler := handlers.NewAuthHandler(authStore, oauthSvc, tokenSvc, cfg.IsProduction(), cfg.Server.FrontendURL)
//	r.Get("/api/v1/auth/state", authHandler.State)
func NewAuthHandler(authState AuthState, oauth OAuthService, tokens TokenIssuer, isProduction bool, postLoginRedirectURL string) *AuthHandler {
	return &AuthHandler{
		authState:            authState,
		oauth:                oauth,
		tokens:               tokens,
		isProduction:         isProduction,
		postLoginRedirectURL: postLoginRedirectURL,
	}
}

// State returns the current auth gate snapshot: both identities and both
// gate flags, taken atomically.
//
// @Summary      Auth state snapshot
// @Description  Returns the license identity, the Google identity, and the gate flags.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  models.AuthSnapshot
// @Router       /api/v1/auth/state [get]
func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, r, http.StatusOK, h.authState.Snapshot())
}

// Bypass opens the Google gate without a Google identity. No precondition;
// the flag resets at process restart.
//
// @Summary      Bypass Google sign-in
// @Description  Opens the Google gate for this process without an identity.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  utils.MessageResponse
// @Router       /api/v1/auth/bypass [post]
func (h *AuthHandler) Bypass(w http.ResponseWriter, r *http.Request) {
	h.authState.BypassGoogle()
	log.Info().Str("ip", utils.ExtractClientIP(r)).Msg("Google gate bypassed")
	utils.RespondWithMessage(w, r, http.StatusOK, "Google sign-in bypassed")
}

// Logout clears both identities and all persisted auth state, revokes the
// caller's access token, and clears the auth cookies. Requires a valid
// token; mounted behind TokenAuth.
//
// @Summary      Logout
// @Description  Clears identities and persisted credentials, revokes the access token.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  utils.MessageResponse
// @Failure      401  {object}  utils.ErrorResponse  "Missing or invalid token"
// @Failure      500  {object}  utils.ErrorResponse  "Storage failure"
// @Router       /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authState.Logout(r.Context()); err != nil {
		log.Error().Err(err).Msg("Logout failed")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to clear auth state")
		return
	}

	// Best effort: the session is already gone even if revocation fails.
	if token := bearerToken(r); token != "" {
		if err := h.tokens.Revoke(r.Context(), token); err != nil {
			log.Warn().Err(err).Msg("Failed to revoke access token on logout")
		}
	}

	utils.ClearAuthCookie(w, "access_token")

	username, _ := middleware.GetUsername(r.Context())
	log.Info().Str("username", username).Msg("Logged out")

	utils.RespondWithMessage(w, r, http.StatusOK, "Logged out")
}

// GoogleLogin initiates the Google OAuth 2.0 sign-in flow. Generates a CSRF
// state token, stores it in a short-lived HttpOnly cookie, and redirects to
// Google's consent screen.
//
// @Summary      Initiate Google sign-in
// @Description  Redirects to the Google OAuth consent screen. Sets a state cookie for CSRF protection.
// @Tags         auth
// @Produce      html
// @Success      307  {string}  string  "Redirect to Google OAuth"
// @Router       /api/v1/auth/google/login [get]
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := services.GenerateState()
	utils.SetAuthCookieWithMaxAge(w, "oauth_state", state, 600, h.isProduction) // 10 minutes

	http.Redirect(w, r, h.oauth.AuthURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback completes the Google sign-in flow. Verifies the CSRF state,
// exchanges the authorization code for the profile, installs the Google
// identity into the auth state (memory and storage together), and redirects
// back to the studio frontend.
//
// @Summary      Google sign-in callback
// @Description  Exchanges the authorization code, installs the Google identity, and redirects to the frontend.
// @Tags         auth
// @Produce      html
// @Param        state  query  string  true  "OAuth state (CSRF protection)"
// @Param        code   query  string  true  "Authorization code from Google"
// @Success      303    {string}  string  "Redirect to frontend"
// @Failure      400    {object}  utils.ErrorResponse  "Invalid state or missing code"
// @Failure      401    {object}  utils.ErrorResponse  "Sign-in failed"
// @Failure      500    {object}  utils.ErrorResponse  "Storage failure"
// @Router       /api/v1/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		middleware.IncrementGoogleSignins("invalid_state")
		log.Warn().Err(err).Msg("Missing OAuth state cookie")
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		middleware.IncrementGoogleSignins("invalid_state")
		log.Warn().Msg("OAuth state mismatch")
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	utils.ClearAuthCookie(w, "oauth_state")

	code := r.URL.Query().Get("code")
	if code == "" {
		middleware.IncrementGoogleSignins("invalid_state")
		log.Warn().Msg("Missing authorization code")
		utils.RespondWithError(w, r, http.StatusBadRequest, "Missing authorization code")
		return
	}

	identity, err := h.oauth.Authenticate(r.Context(), code)
	if err != nil {
		middleware.IncrementGoogleSignins("exchange_failed")
		log.Error().Err(err).Msg("Google sign-in failed")
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Google sign-in failed")
		return
	}

	if err := h.authState.SetGoogleIdentity(r.Context(), identity); err != nil {
		middleware.IncrementGoogleSignins("error")
		log.Error().Err(err).Msg("Failed to install Google identity")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to persist identity")
		return
	}

	middleware.IncrementGoogleSignins("success")
	log.Info().
		Str("email", identity.Email).
		Str("device", services.ExtractDeviceInfo(r.UserAgent())).
		Msg("Google sign-in completed")

	redirectURL := h.postLoginRedirectURL
	if redirectURL == "" {
		redirectURL = "/"
	}
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// bearerToken extracts the access token from the Authorization header or the
// access_token cookie, mirroring the TokenAuth lookup order.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if len(header) > 7 && header[:7] == "Bearer " {
			return header[7:]
		}
		return header
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
