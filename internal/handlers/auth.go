// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veilscan/veilscan/internal/apperror"
	"github.com/veilscan/veilscan/internal/middleware"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Signup registers a new account and mails its verification code.
func (h *Handlers) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}

	result, err := h.auth.Signup(c.Request().Context(), req.Email, req.Password, req.Phone)
	if err != nil {
		return respondError(c, err)
	}

	message := "User registered successfully. Please verify your email with the code sent."
	if !result.CodeDelivered {
		message = "User registered but the verification email could not be sent. Request a new code or contact support."
	}
	return respondOK(c, http.StatusCreated, message, map[string]any{
		"email":       result.User.Email,
		"is_verified": result.User.IsVerified,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates credentials and returns a bearer token.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return respondError(c, apperror.Validation("email and password are required"))
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, "Login successful", map[string]any{
		"user":  result.User,
		"token": result.Token,
	})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyCode consumes a one-time code and verifies the account.
func (h *Handlers) VerifyCode(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	if req.Email == "" || req.Code == "" {
		return respondError(c, apperror.Validation("email and code are required"))
	}

	result, err := h.auth.Verify(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, "Email verified successfully", map[string]any{
		"user":  result.User,
		"token": result.Token,
	})
}

type resendRequest struct {
	Email string `json:"email"`
}

// ResendCode issues and mails a fresh verification code.
func (h *Handlers) ResendCode(c echo.Context) error {
	var req resendRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	if req.Email == "" {
		return respondError(c, apperror.Validation("email is required"))
	}

	delivered, err := h.auth.ResendCode(c.Request().Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}

	message := "Verification code sent to your email"
	if !delivered {
		message = "Verification code generated, but the email could not be sent. Please try again later."
	}
	return respondOK(c, http.StatusOK, message, nil)
}

// Profile returns the authenticated user's account.
func (h *Handlers) Profile(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return respondOK(c, http.StatusOK, "", map[string]any{"user": user})
}

type updateProfileRequest struct {
	Phone *string `json:"phone"`
}

// UpdateProfile updates mutable profile fields.
func (h *Handlers) UpdateProfile(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	if req.Phone == nil {
		return respondOK(c, http.StatusOK, "Profile unchanged", map[string]any{"user": user})
	}

	updated, err := h.auth.UpdatePhone(c.Request().Context(), user.ID, *req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, "Profile updated successfully", map[string]any{"user": updated})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword swaps the account credential.
func (h *Handlers) ChangePassword(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	if req.CurrentPassword == "" {
		return respondError(c, apperror.Validation("current password is required"))
	}

	if err := h.auth.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, "Password changed successfully", nil)
}

// Logout acknowledges a logout. Bearer tokens are discarded client-side.
func (h *Handlers) Logout(c echo.Context) error {
	return respondOK(c, http.StatusOK, "Logged out successfully", nil)
}
