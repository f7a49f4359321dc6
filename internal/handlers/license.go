// Package handlers provides the HTTP endpoints of the API: the license
// session surface (init, login, register, hardware id), the auth state
// surface (state, bypass, logout, Google sign-in), and health checks.
//
// Handlers depend on narrow consumer-side interfaces so tests can inject
// stubs without touching the real services.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/internal/middleware"
	"github.com/sptool/studioauth/internal/models"
	"github.com/sptool/studioauth/internal/services"
	"github.com/sptool/studioauth/pkg/utils"
)

// SessionService defines the license session operations the HTTP layer uses.
type SessionService interface {
	Init(ctx context.Context) (string, error)
	Login(ctx context.Context, username, password string) (*models.LicenseIdentity, error)
	Register(ctx context.Context, username, password string) error
	HardwareID(ctx context.Context) (string, error)
}

// AuthState defines the process auth state operations the HTTP layer uses.
type AuthState interface {
	Login(ctx context.Context, identity *models.LicenseIdentity, username, password string) error
	Logout(ctx context.Context) error
	BypassGoogle()
	Snapshot() models.AuthSnapshot
	SetGoogleIdentity(ctx context.Context, identity *models.GoogleIdentity) error
}

// TokenIssuer defines the access token operations the HTTP layer uses.
type TokenIssuer interface {
	Issue(username string) (*services.AccessToken, error)
	Revoke(ctx context.Context, tokenString string) error
}

// LicenseHandler handles the license session endpoints backed by the mock
// validation client: session init, credential login and registration, and
// the hardware id.
type LicenseHandler struct {
	session      SessionService
	authState    AuthState
	tokens       TokenIssuer
	isProduction bool // Affects cookie security attributes
}

// NewLicenseHandler creates a license handler with its dependencies.
//
// Example:
//
//	licenseHandler := handlers.NewLicenseHandler(sessionClient, authStore, tokenSvc, cfg.IsProduction())
//	r.Post("/api/v1/license/init", licenseHandler.Init)
//	r.Post("/api/v1/license/login", licenseHandler.Login)
func NewLicenseHandler(session SessionService, authState AuthState, tokens TokenIssuer, isProduction bool) *LicenseHandler {
	return &LicenseHandler{
		session:      session,
		authState:    authState,
		tokens:       tokens,
		isProduction: isProduction,
	}
}

// credentialsRequest is the JSON body of the login and register endpoints.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the JSON body of a successful login.
type loginResponse struct {
	User        *models.LicenseIdentity `json:"user"`
	AccessToken *services.AccessToken   `json:"tokens"`
}

// Init establishes the mock license session. Idempotent: repeated calls
// return the same session id without the simulated delay.
//
// @Summary      Initialize the license session
// @Description  Establishes the mock validation session. Safe to call repeatedly.
// @Tags         license
// @Produce      json
// @Success      200  {object}  map[string]string  "session_id"
// @Failure      500  {object}  utils.ErrorResponse  "Initialization failed"
// @Router       /api/v1/license/init [post]
func (h *LicenseHandler) Init(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.session.Init(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Session init failed")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to initialize session")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]string{"session_id": sessionID})
}

// Login checks a credential pair against the license backend and, on
// success, installs the returned identity, persists the pair for auto-login,
// and issues an access token in both the body and a cookie.
//
// Failure mapping:
//   - session not initialized: 409 Conflict
//   - empty username or password: 400 Bad Request
//   - wrong username or password: 401 Unauthorized
//
// @Summary      License login
// @Description  Validates credentials, installs the license identity, and issues an access token.
// @Tags         license
// @Accept       json
// @Produce      json
// @Param        body  body  credentialsRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  utils.ErrorResponse  "Empty username or password"
// @Failure      401   {object}  utils.ErrorResponse  "Invalid username or password"
// @Failure      409   {object}  utils.ErrorResponse  "Session not initialized"
// @Router       /api/v1/license/login [post]
func (h *LicenseHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.session.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		middleware.IncrementLicenseLogins(loginResult(err))
		log.Warn().
			Err(err).
			Str("device", services.ExtractDeviceInfo(r.UserAgent())).
			Str("ip", utils.ExtractClientIP(r)).
			Msg("License login rejected")
		utils.RespondWithError(w, r, loginStatus(err), loginMessage(err))
		return
	}

	if err := h.authState.Login(r.Context(), identity, req.Username, req.Password); err != nil {
		middleware.IncrementLicenseLogins("error")
		log.Error().Err(err).Msg("Failed to install license identity")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to persist login")
		return
	}

	token, err := h.tokens.Issue(identity.Username)
	if err != nil {
		middleware.IncrementLicenseLogins("error")
		log.Error().Err(err).Msg("Failed to issue access token")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	utils.SetAuthCookie(w, "access_token", token.Token, token.ExpiresAt, h.isProduction)

	middleware.IncrementLicenseLogins("success")
	log.Info().
		Str("username", identity.Username).
		Str("device", services.ExtractDeviceInfo(r.UserAgent())).
		Str("ip", utils.ExtractClientIP(r)).
		Msg("License login succeeded")

	utils.RespondWithJSON(w, r, http.StatusOK, loginResponse{User: identity, AccessToken: token})
}

// Register runs the same credential validation as Login without installing
// anything.
//
// @Summary      License registration
// @Description  Validates credentials through the registration path of the mock backend.
// @Tags         license
// @Accept       json
// @Produce      json
// @Param        body  body  credentialsRequest  true  "Credentials"
// @Success      200   {object}  utils.MessageResponse
// @Failure      400   {object}  utils.ErrorResponse  "Empty username or password"
// @Failure      401   {object}  utils.ErrorResponse  "Invalid username or password"
// @Failure      409   {object}  utils.ErrorResponse  "Session not initialized"
// @Router       /api/v1/license/register [post]
func (h *LicenseHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.session.Register(r.Context(), req.Username, req.Password); err != nil {
		utils.RespondWithError(w, r, loginStatus(err), loginMessage(err))
		return
	}

	utils.RespondWithMessage(w, r, http.StatusOK, "Registration accepted")
}

// HardwareID returns the stable hardware identifier, generating it on first
// call.
//
// @Summary      Hardware id
// @Description  Returns the persisted hardware identifier reported in license identities.
// @Tags         license
// @Produce      json
// @Success      200  {object}  map[string]string  "hardware_id"
// @Failure      500  {object}  utils.ErrorResponse  "Storage failure"
// @Router       /api/v1/license/hwid [get]
func (h *LicenseHandler) HardwareID(w http.ResponseWriter, r *http.Request) {
	hwid, err := h.session.HardwareID(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve hardware id")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to resolve hardware id")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]string{"hardware_id": hwid})
}

// loginStatus maps a credential-check failure to an HTTP status.
func loginStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotInitialized):
		return http.StatusConflict
	case errors.Is(err, services.ErrEmptyUsername), errors.Is(err, services.ErrEmptyPassword):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidUsername), errors.Is(err, services.ErrInvalidPassword):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// loginMessage maps a credential-check failure to a client-facing message.
// The distinction between a wrong username and a wrong password is kept; the
// mock backend is not guarding real accounts, and the studio frontend shows
// field-level errors.
func loginMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrNotInitialized):
		return "Session not initialized"
	case errors.Is(err, services.ErrEmptyUsername):
		return "Username is required"
	case errors.Is(err, services.ErrEmptyPassword):
		return "Password is required"
	case errors.Is(err, services.ErrInvalidUsername):
		return "Invalid username"
	case errors.Is(err, services.ErrInvalidPassword):
		return "Invalid password"
	default:
		return "License service failure"
	}
}

// loginResult maps a credential-check failure to a metrics label.
func loginResult(err error) string {
	switch {
	case errors.Is(err, services.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, services.ErrEmptyUsername):
		return "empty_username"
	case errors.Is(err, services.ErrEmptyPassword):
		return "empty_password"
	case errors.Is(err, services.ErrInvalidUsername):
		return "invalid_username"
	case errors.Is(err, services.ErrInvalidPassword):
		return "invalid_password"
	default:
		return "error"
	}
}
