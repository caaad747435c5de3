// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package models contains the persistent entities of the service.
package models

import (
	"database/sql"
	"time"
)

// User is a registered account. PasswordHash and the one-time-code
// columns never leave the service boundary.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID           int64          `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Phone        sql.NullString `db:"phone" json:"phone,omitempty"`
	IsVerified   bool           `db:"is_verified" json:"is_verified"`
	OTPCodeHash  sql.NullString `db:"otp_code_hash" json:"-"`
	OTPExpiresAt sql.NullTime   `db:"otp_expires_at" json:"-"`
	TotalScans   int64          `db:"total_scans" json:"total_scans"`
	RiskScore    int64          `db:"risk_score" json:"risk_score"`
	LastScanDate sql.NullTime   `db:"last_scan_date" json:"last_scan_date,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// HasOutstandingCode reports whether a one-time code is stored for the
// user. It does not check expiry.
func (u *User) HasOutstandingCode() bool {
	return u.OTPCodeHash.Valid && u.OTPCodeHash.String != ""
}
