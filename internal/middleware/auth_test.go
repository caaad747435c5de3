// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilscan/veilscan/internal/middleware"
	"github.com/veilscan/veilscan/internal/models"
	"github.com/veilscan/veilscan/internal/repository"
	"github.com/veilscan/veilscan/internal/services/token"
	"github.com/veilscan/veilscan/internal/testutil"
)

func setup(t *testing.T) (*echo.Echo, *token.Service, *repository.Repository) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	tokens, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	return echo.New(), tokens, repo
}

func protectedCall(e *echo.Echo, mw echo.MiddlewareFunc, authorization string) (*httptest.ResponseRecorder, *models.User) {
	var seen *models.User
	handler := mw(func(c echo.Context) error {
		seen = middleware.CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	return rec, seen
}

func TestRequireAuth(t *testing.T) {
	e, tokens, repo := setup(t)
	user := testutil.NewTestUser(t, repo, "jane@example.com")
	mw := middleware.RequireAuth(tokens, repo)

	signed, err := tokens.Issue(user.ID)
	require.NoError(t, err)

	rec, seen := protectedCall(e, mw, "Bearer "+signed)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	e, tokens, repo := setup(t)
	mw := middleware.RequireAuth(tokens, repo)

	rec, seen := protectedCall(e, mw, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	e, tokens, repo := setup(t)
	mw := middleware.RequireAuth(tokens, repo)

	rec, _ := protectedCall(e, mw, "Token abcdef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	e, tokens, repo := setup(t)
	mw := middleware.RequireAuth(tokens, repo)

	rec, _ := protectedCall(e, mw, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	e, tokens, repo := setup(t)
	mw := middleware.RequireAuth(tokens, repo)

	signed, err := tokens.Issue(999)
	require.NoError(t, err)

	rec, _ := protectedCall(e, mw, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_UnverifiedUser(t *testing.T) {
	e, tokens, repo := setup(t)
	user := testutil.NewUnverifiedUser(t, repo, "jane@example.com")
	mw := middleware.RequireAuth(tokens, repo)

	signed, err := tokens.Issue(user.ID)
	require.NoError(t, err)

	rec, seen := protectedCall(e, mw, "Bearer "+signed)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "requires_verification")
	assert.Nil(t, seen)
}
