package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sptool/studioauth/internal/models"
	"github.com/sptool/studioauth/internal/services"
)

// Mock implementations for testing

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Init(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSessionService) Login(ctx context.Context, username, password string) (*models.LicenseIdentity, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LicenseIdentity), args.Error(1)
}

func (m *MockSessionService) Register(ctx context.Context, username, password string) error {
	args := m.Called(ctx, username, password)
	return args.Error(0)
}

func (m *MockSessionService) HardwareID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockAuthState struct {
	mock.Mock
}

func (m *MockAuthState) Login(ctx context.Context, identity *models.LicenseIdentity, username, password string) error {
	args := m.Called(ctx, identity, username, password)
	return args.Error(0)
}

func (m *MockAuthState) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuthState) BypassGoogle() {
	m.Called()
}

func (m *MockAuthState) Snapshot() models.AuthSnapshot {
	args := m.Called()
	return args.Get(0).(models.AuthSnapshot)
}

func (m *MockAuthState) SetGoogleIdentity(ctx context.Context, identity *models.GoogleIdentity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(username string) (*services.AccessToken, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AccessToken), args.Error(1)
}

func (m *MockTokenIssuer) Revoke(ctx context.Context, tokenString string) error {
	args := m.Called(ctx, tokenString)
	return args.Error(0)
}

// Test helpers

func setupLicenseHandler(t *testing.T) (*LicenseHandler, *MockSessionService, *MockAuthState, *MockTokenIssuer) {
	t.Helper()

	mockSession := new(MockSessionService)
	mockAuth := new(MockAuthState)
	mockTokens := new(MockTokenIssuer)
	handler := NewLicenseHandler(mockSession, mockAuth, mockTokens, false)
	return handler, mockSession, mockAuth, mockTokens
}

func testIdentity() *models.LicenseIdentity {
	return &models.LicenseIdentity{
		Username: "SP Tool",
		Subscriptions: []models.Subscription{{
			Name:     "default",
			Expiry:   "08/30/2028",
			DaysLeft: 731,
		}},
		HardwareID: "hwid-1",
		IP:         "127.0.0.1",
		CreateDate: "08/30/2026",
		LastLogin:  "08/30/2026",
	}
}

func credentialsBody(t *testing.T, username, password string) *bytes.Buffer {
	t.Helper()

	body, err := json.Marshal(credentialsRequest{Username: username, Password: password})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestLicenseHandlerInit(t *testing.T) {
	t.Run("returns the session id", func(t *testing.T) {
		handler, mockSession, _, _ := setupLicenseHandler(t)
		mockSession.On("Init", mock.Anything).Return("session-123", nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/license/init", nil)
		rec := httptest.NewRecorder()
		handler.Init(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "session-123", resp["session_id"])
		mockSession.AssertExpectations(t)
	})

	t.Run("surfaces init failure", func(t *testing.T) {
		handler, mockSession, _, _ := setupLicenseHandler(t)
		mockSession.On("Init", mock.Anything).Return("", errors.New("cancelled"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/license/init", nil)
		rec := httptest.NewRecorder()
		handler.Init(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLicenseHandlerLogin(t *testing.T) {
	t.Run("successful login installs identity and issues token", func(t *testing.T) {
		handler, mockSession, mockAuth, mockTokens := setupLicenseHandler(t)
		identity := testIdentity()
		token := &services.AccessToken{Token: "signed-token", ExpiresAt: time.Now().Add(time.Hour)}

		mockSession.On("Login", mock.Anything, "SP Tool", "studentai2026").Return(identity, nil)
		mockAuth.On("Login", mock.Anything, identity, "SP Tool", "studentai2026").Return(nil)
		mockTokens.On("Issue", "SP Tool").Return(token, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/license/login", credentialsBody(t, "SP Tool", "studentai2026"))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp loginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "SP Tool", resp.User.Username)
		assert.Equal(t, "signed-token", resp.AccessToken.Token)

		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "access_token", cookies[0].Name)
		assert.Equal(t, "signed-token", cookies[0].Value)

		mockSession.AssertExpectations(t)
		mockAuth.AssertExpectations(t)
		mockTokens.AssertExpectations(t)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		handler, _, _, _ := setupLicenseHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/license/login", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps credential failures to statuses", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			want int
		}{
			{"not initialized", services.ErrNotInitialized, http.StatusConflict},
			{"empty username", services.ErrEmptyUsername, http.StatusBadRequest},
			{"empty password", services.ErrEmptyPassword, http.StatusBadRequest},
			{"invalid username", services.ErrInvalidUsername, http.StatusUnauthorized},
			{"invalid password", services.ErrInvalidPassword, http.StatusUnauthorized},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				handler, mockSession, _, _ := setupLicenseHandler(t)
				mockSession.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err)

				req := httptest.NewRequest(http.MethodPost, "/api/v1/license/login", credentialsBody(t, "u", "p"))
				rec := httptest.NewRecorder()
				handler.Login(rec, req)

				assert.Equal(t, tc.want, rec.Code)
			})
		}
	})

	t.Run("persistence failure is a server error", func(t *testing.T) {
		handler, mockSession, mockAuth, _ := setupLicenseHandler(t)
		identity := testIdentity()

		mockSession.On("Login", mock.Anything, "SP Tool", "studentai2026").Return(identity, nil)
		mockAuth.On("Login", mock.Anything, identity, "SP Tool", "studentai2026").Return(errors.New("backend down"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/license/login", credentialsBody(t, "SP Tool", "studentai2026"))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLicenseHandlerRegister(t *testing.T) {
	t.Run("accepts valid credentials", func(t *testing.T) {
		handler, mockSession, _, _ := setupLicenseHandler(t)
		mockSession.On("Register", mock.Anything, "SP Tool", "studentai2026").Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/license/register", credentialsBody(t, "SP Tool", "studentai2026"))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockSession.AssertExpectations(t)
	})

	t.Run("maps failures like login", func(t *testing.T) {
		handler, mockSession, _, _ := setupLicenseHandler(t)
		mockSession.On("Register", mock.Anything, mock.Anything, mock.Anything).Return(services.ErrNotInitialized)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/license/register", credentialsBody(t, "u", "p"))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestLicenseHandlerHardwareID(t *testing.T) {
	t.Run("returns the hardware id", func(t *testing.T) {
		handler, mockSession, _, _ := setupLicenseHandler(t)
		mockSession.On("HardwareID", mock.Anything).Return("hwid-1", nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/license/hwid", nil)
		rec := httptest.NewRecorder()
		handler.HardwareID(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "hwid-1", resp["hardware_id"])
	})

	t.Run("surfaces storage failure", func(t *testing.T) {
		handler, mockSession, _, _ := setupLicenseHandler(t)
		mockSession.On("HardwareID", mock.Anything).Return("", errors.New("backend down"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/license/hwid", nil)
		rec := httptest.NewRecorder()
		handler.HardwareID(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
