// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/veilscan/veilscan/internal/models"
)

// CreateUser inserts a new user and fills in its generated fields.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, phone, is_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Phone, user.IsVerified, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their case-normalized email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// UpdateUserPhone updates a user's phone number.
func (r *Repository) UpdateUserPhone(ctx context.Context, id int64, phone sql.NullString) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET phone = ?, updated_at = ? WHERE id = ?`,
		phone, time.Now().UTC(), id)
	return err
}

// UpdateUserPassword updates a user's password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	return err
}

// SetOneTimeCode stores the hash and expiry of a freshly issued code,
// overwriting any outstanding one. Last writer wins.
func (r *Repository) SetOneTimeCode(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET otp_code_hash = ?, otp_expires_at = ?, updated_at = ? WHERE id = ?`,
		codeHash, expiresAt.UTC(), time.Now().UTC(), userID)
	return err
}

// ConsumeOneTimeCode atomically clears the stored code if it matches the
// submitted hash and has not expired. Returns true when the code was
// consumed. A non-matching or expired submission leaves the stored code
// untouched, so the single UPDATE is the check-and-clear.
func (r *Repository) ConsumeOneTimeCode(ctx context.Context, userID int64, codeHash string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET otp_code_hash = NULL, otp_expires_at = NULL, updated_at = ?
		 WHERE id = ? AND otp_code_hash = ? AND otp_expires_at > ?`,
		now.UTC(), userID, codeHash, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkUserVerified flips the verification flag.
func (r *Repository) MarkUserVerified(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID)
	return err
}

// ApplyScanCompletion folds a completed scan into the user's aggregate
// stats in one statement: increment total_scans, set last_scan_date and
// raise risk_score to the new maximum. Concurrent completions never lose
// an increment or regress the maximum.
func (r *Repository) ApplyScanCompletion(ctx context.Context, userID int64, riskScore int64, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET total_scans = total_scans + 1,
		     last_scan_date = ?,
		     risk_score = MAX(risk_score, ?),
		     updated_at = ?
		 WHERE id = ?`,
		completedAt.UTC(), riskScore, time.Now().UTC(), userID)
	return err
}
