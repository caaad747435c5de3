// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package middleware contains the echo middlewares of the service.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/veilscan/veilscan/internal/models"
)

// userContextKey stores the authenticated user on the echo context.
const userContextKey = "veilscan.user"

// TokenVerifier checks a bearer token and returns the embedded user id.
type TokenVerifier interface {
	Verify(tokenString string) (int64, error)
}

// UserLoader loads full user data.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// RequireAuth authenticates the bearer token, loads the account and
// rejects unverified users. Scanning is gated on a verified account.
func RequireAuth(tokens TokenVerifier, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c, "authentication required")
			}

			userID, err := tokens.Verify(tokenString)
			if err != nil {
				return unauthorized(c, "invalid or expired token")
			}

			user, err := users.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				return unauthorized(c, "invalid or expired token")
			}
			if !user.IsVerified {
				return c.JSON(http.StatusForbidden, map[string]any{
					"success":               false,
					"message":               "please verify your email first",
					"requires_verification": true,
				})
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user set by RequireAuth.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// SetCurrentUser is a test hook for handler tests.
func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(userContextKey, user)
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{
		"success": false,
		"message": message,
	})
}
