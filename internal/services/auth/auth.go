// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package auth owns account registration, credentials and the email
// verification lifecycle that gates access to scanning.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/veilscan/veilscan/internal/apperror"
	"github.com/veilscan/veilscan/internal/models"
	"github.com/veilscan/veilscan/internal/repository"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^[\d\s+()-]+$`)
)

// dummyHash is used for constant-time login to prevent timing attacks.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Notifier delivers account mail. Calls are fire-and-report: failures
// are logged and degrade the caller-visible message but never roll back
// the state change that triggered them.
type Notifier interface {
	SendCode(ctx context.Context, email, code string) error
	SendWelcome(ctx context.Context, email, displayName string) error
}

// TokenIssuer mints an opaque bearer token for a user id.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Service implements the account and verification operations.
type Service struct {
	repo     *repository.Repository
	notifier Notifier
	tokens   TokenIssuer
	policy   *PasswordPolicy
}

// NewService creates an auth service.
func NewService(repo *repository.Repository, notifier Notifier, tokens TokenIssuer) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		tokens:   tokens,
		policy:   DefaultPasswordPolicy(),
	}
}

// PasswordPolicy returns the active policy for use in handlers.
func (s *Service) PasswordPolicy() *PasswordPolicy {
	return s.policy
}

// SignupResult reports a created account and whether the verification
// code reached the mail system.
type SignupResult struct {
	User          *models.User
	CodeDelivered bool
}

// Signup registers a new, unverified account and issues its first
// verification code. A failed code delivery does not fail the signup.
func (s *Service) Signup(ctx context.Context, email, password, phone string) (*SignupResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, apperror.Validation("a valid email address is required")
	}
	if issues := s.policy.Validate(password, email); len(issues) > 0 {
		return nil, apperror.Validation(strings.Join(issues, " "))
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("user with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal("failed to check existing user", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		Phone:        nullString(phone),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}

	code, err := s.IssueCode(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	delivered := true
	if err := s.notifier.SendCode(ctx, email, code); err != nil {
		slog.Warn("code_email_failed", "user_id", user.ID, "error", err)
		delivered = false
	}

	slog.Info("signup_success", "user_id", user.ID, "email", email)
	return &SignupResult{User: user, CodeDelivered: delivered}, nil
}

// LoginResult carries the authenticated user and the issued token.
type LoginResult struct {
	User  *models.User
	Token string
}

// Login authenticates credentials. Correct credentials on an unverified
// account are rejected with a distinct signal and no token is issued.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, apperror.Authentication("invalid email or password")
		}
		return nil, apperror.Internal("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, apperror.Authentication("invalid email or password")
	}

	if !user.IsVerified {
		slog.Info("login_requires_verification", "user_id", user.ID)
		return nil, apperror.UnverifiedAccount("please verify your email first")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return &LoginResult{User: user, Token: token}, nil
}

// GetProfile fetches the account record.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal("failed to get user", err)
	}
	return user, nil
}

// UpdatePhone sets or clears the account's phone number.
func (s *Service) UpdatePhone(ctx context.Context, userID int64, phone string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, apperror.Validation("a valid phone number is required")
	}
	if err := s.repo.UpdateUserPhone(ctx, userID, nullString(phone)); err != nil {
		return nil, apperror.Internal("failed to update profile", err)
	}
	return s.GetProfile(ctx, userID)
}

// ChangePassword re-hashes the credential after verifying the current
// password.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperror.Authentication("current password is incorrect")
	}

	if issues := s.policy.Validate(newPassword, user.Email); len(issues) > 0 {
		return apperror.Validation(strings.Join(issues, " "))
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Internal("failed to hash password", err)
	}
	if err := s.repo.UpdateUserPassword(ctx, userID, string(passwordHash)); err != nil {
		return apperror.Internal("failed to update password", err)
	}

	slog.Info("password_changed", "user_id", userID)
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// DisplayName derives a salutation from an email address.
func DisplayName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
