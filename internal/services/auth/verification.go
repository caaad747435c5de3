// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/veilscan/veilscan/internal/apperror"
	"github.com/veilscan/veilscan/internal/models"
	"github.com/veilscan/veilscan/internal/repository"
)

const (
	// CodeDigits is the length of a one-time code.
	CodeDigits = 6
	// CodeExpiry is how long an issued code stays valid.
	CodeExpiry = 10 * time.Minute
)

// IssueCode generates a fresh one-time code for the user, stores its
// hash with an expiry and returns the plaintext exactly once for
// out-of-band delivery. Any prior outstanding code is overwritten.
func (s *Service) IssueCode(ctx context.Context, userID int64) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", apperror.Internal("failed to generate code", err)
	}
	expiresAt := time.Now().UTC().Add(CodeExpiry)
	if err := s.repo.SetOneTimeCode(ctx, userID, HashCode(code), expiresAt); err != nil {
		return "", apperror.Internal("failed to store code", err)
	}
	slog.Info("code_issued", "user_id", userID, "expires_at", expiresAt)
	return code, nil
}

// ConsumeCode consumes an outstanding code. It returns false, with no
// state change, when no code is outstanding, the code has expired or it
// does not match. Consumption is a single atomic check-and-clear, so a
// code can be used at most once under concurrency.
func (s *Service) ConsumeCode(ctx context.Context, userID int64, submittedCode string) (bool, error) {
	ok, err := s.repo.ConsumeOneTimeCode(ctx, userID, HashCode(submittedCode), time.Now().UTC())
	if err != nil {
		return false, apperror.Internal("failed to consume code", err)
	}
	return ok, nil
}

// VerifyResult carries the verified user and its first session token.
type VerifyResult struct {
	User  *models.User
	Token string
}

// Verify consumes the submitted code and marks the account verified.
// The welcome notification is best-effort: its failure is logged and
// never fails the verification.
func (s *Service) Verify(ctx context.Context, email, submittedCode string) (*VerifyResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal("failed to get user", err)
	}
	if user.IsVerified {
		return nil, apperror.Conflict("email already verified")
	}

	ok, err := s.ConsumeCode(ctx, user.ID, submittedCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Authentication("invalid or expired code")
	}

	if err := s.repo.MarkUserVerified(ctx, user.ID); err != nil {
		return nil, apperror.Internal("failed to mark user verified", err)
	}
	user.IsVerified = true

	if err := s.notifier.SendWelcome(ctx, user.Email, DisplayName(user.Email)); err != nil {
		slog.Warn("welcome_email_failed", "user_id", user.ID, "error", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}

	slog.Info("email_verified", "user_id", user.ID)
	return &VerifyResult{User: user, Token: token}, nil
}

// ResendCode issues a fresh code for an unverified account,
// invalidating any previous one regardless of its expiry. Reports
// whether delivery reached the mail system.
func (s *Service) ResendCode(ctx context.Context, email string) (bool, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperror.NotFound("user not found")
		}
		return false, apperror.Internal("failed to get user", err)
	}
	if user.IsVerified {
		return false, apperror.Conflict("email already verified")
	}

	code, err := s.IssueCode(ctx, user.ID)
	if err != nil {
		return false, err
	}

	if err := s.notifier.SendCode(ctx, user.Email, code); err != nil {
		slog.Warn("code_email_failed", "user_id", user.ID, "error", err)
		return false, nil
	}
	return true, nil
}

// HashCode computes the storage hash of a one-time code. Codes are
// never persisted in plaintext.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// generateCode produces a fixed-length numeric code.
func generateCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < CodeDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeDigits, n), nil
}
