// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilscan/veilscan/internal/handlers"
	"github.com/veilscan/veilscan/internal/middleware"
	"github.com/veilscan/veilscan/internal/models"
	"github.com/veilscan/veilscan/internal/providers"
	"github.com/veilscan/veilscan/internal/repository"
	"github.com/veilscan/veilscan/internal/services/auth"
	"github.com/veilscan/veilscan/internal/services/scan"
	"github.com/veilscan/veilscan/internal/services/token"
	"github.com/veilscan/veilscan/internal/testutil"
)

type stubProviders struct {
	platforms []models.PlatformMatch
	breaches  []models.BreachRecord
	entries   []models.ExposureEntry
	err       error
}

func (s *stubProviders) ScanUsername(_ context.Context, _ string) ([]models.PlatformMatch, error) {
	return s.platforms, s.err
}

func (s *stubProviders) ScanEmail(_ context.Context, _ string) ([]models.BreachRecord, error) {
	return s.breaches, s.err
}

func (s *stubProviders) ScanPhone(_ context.Context, _ string) ([]models.ExposureEntry, error) {
	return s.entries, s.err
}

var _ providers.UsernameScanner = (*stubProviders)(nil)

type testEnv struct {
	handlers *handlers.Handlers
	repo     *repository.Repository
	notifier *testutil.CaptureNotifier
	echo     *echo.Echo
}

func newTestEnv(t *testing.T, stub *stubProviders) *testEnv {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	notifier := testutil.NewCaptureNotifier()
	tokens, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	authService := auth.NewService(repo, notifier, tokens)
	scanService := scan.NewService(repo, stub, stub, stub)
	return &testEnv{
		handlers: handlers.New(authService, scanService),
		repo:     repo,
		notifier: notifier,
		echo:     echo.New(),
	}
}

func (env *testEnv) request(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return env.echo.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSignupHandler(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})
	c, rec := env.request(http.MethodPost, "/api/auth/signup",
		`{"email":"jane@example.com","password":"Str0ngPass"}`)

	require.NoError(t, env.handlers.Signup(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, env.notifier.LastCode("jane@example.com"))
}

func TestSignupHandler_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})

	c, _ := env.request(http.MethodPost, "/api/auth/signup",
		`{"email":"jane@example.com","password":"Str0ngPass"}`)
	require.NoError(t, env.handlers.Signup(c))

	c, rec := env.request(http.MethodPost, "/api/auth/signup",
		`{"email":"jane@example.com","password":"Str0ngPass"}`)
	require.NoError(t, env.handlers.Signup(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestSignupHandler_WeakPassword(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})
	c, rec := env.request(http.MethodPost, "/api/auth/signup",
		`{"email":"jane@example.com","password":"weak"}`)

	require.NoError(t, env.handlers.Signup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginHandler_UnverifiedSignalsVerification(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})

	c, _ := env.request(http.MethodPost, "/api/auth/signup",
		`{"email":"jane@example.com","password":"Str0ngPass"}`)
	require.NoError(t, env.handlers.Signup(c))

	c, rec := env.request(http.MethodPost, "/api/auth/login",
		`{"email":"jane@example.com","password":"Str0ngPass"}`)
	require.NoError(t, env.handlers.Login(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["requires_verification"])
	assert.NotContains(t, body, "data")
}

func TestVerifyAndLoginFlow(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})

	c, _ := env.request(http.MethodPost, "/api/auth/signup",
		`{"email":"jane@example.com","password":"Str0ngPass"}`)
	require.NoError(t, env.handlers.Signup(c))
	code := env.notifier.LastCode("jane@example.com")

	c, rec := env.request(http.MethodPost, "/api/auth/verify-otp",
		`{"email":"jane@example.com","code":"`+code+`"}`)
	require.NoError(t, env.handlers.VerifyCode(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])

	c, rec = env.request(http.MethodPost, "/api/auth/login",
		`{"email":"jane@example.com","password":"Str0ngPass"}`)
	require.NoError(t, env.handlers.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyHandler_InvalidCode(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})

	c, _ := env.request(http.MethodPost, "/api/auth/signup",
		`{"email":"jane@example.com","password":"Str0ngPass"}`)
	require.NoError(t, env.handlers.Signup(c))

	c, rec := env.request(http.MethodPost, "/api/auth/verify-otp",
		`{"email":"jane@example.com","code":"999999x"}`)
	require.NoError(t, env.handlers.VerifyCode(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResendHandler_VerifiedConflict(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})
	testutil.NewTestUser(t, env.repo, "jane@example.com")

	c, rec := env.request(http.MethodPost, "/api/auth/resend-otp",
		`{"email":"jane@example.com"}`)
	require.NoError(t, env.handlers.ResendCode(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProfileHandler(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})
	user := testutil.NewTestUser(t, env.repo, "jane@example.com")

	c, rec := env.request(http.MethodGet, "/api/auth/profile", "")
	middleware.SetCurrentUser(c, user)
	require.NoError(t, env.handlers.Profile(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	// The password hash never leaves the service boundary.
	assert.NotContains(t, rec.Body.String(), "password_hash")
	assert.Contains(t, rec.Body.String(), "jane@example.com")
}

func TestUpdateProfileHandler(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})
	user := testutil.NewTestUser(t, env.repo, "jane@example.com")

	c, rec := env.request(http.MethodPut, "/api/auth/profile",
		`{"phone":"+49 30 1234567"}`)
	middleware.SetCurrentUser(c, user)
	require.NoError(t, env.handlers.UpdateProfile(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	updated, err := env.repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "+49 30 1234567", updated.Phone.String)
}

func TestChangePasswordHandler_WrongCurrent(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})
	user := testutil.NewTestUser(t, env.repo, "jane@example.com")

	c, rec := env.request(http.MethodPost, "/api/auth/change-password",
		`{"current_password":"WrongPass1","new_password":"N3wStrongPass"}`)
	middleware.SetCurrentUser(c, user)
	require.NoError(t, env.handlers.ChangePassword(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutHandler(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})

	c, rec := env.request(http.MethodPost, "/api/auth/logout", "")
	require.NoError(t, env.handlers.Logout(c))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t, &stubProviders{})

	c, rec := env.request(http.MethodGet, "/health", "")
	require.NoError(t, env.handlers.Health(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
