// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"github.com/veilscan/veilscan/internal/database"
	"github.com/veilscan/veilscan/internal/models"
	"github.com/veilscan/veilscan/internal/repository"
)

// NewTestDB creates an isolated in-memory SQLite database for tests.
// Returns both the connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New(db)
}

// NewTestUser creates a verified test user.
func NewTestUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	user := &models.User{
		Email:        email,
		PasswordHash: "test-hash",
	}
	require.NoError(t, repo.CreateUser(ctx, user))
	require.NoError(t, repo.MarkUserVerified(ctx, user.ID))
	user.IsVerified = true
	return user
}

// NewUnverifiedUser creates an unverified test user.
func NewUnverifiedUser(t *testing.T, repo *repository.Repository, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "test-hash",
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// CaptureNotifier records sent mail instead of delivering it.
type CaptureNotifier struct {
	mu       sync.Mutex
	Codes    map[string]string // email -> last code
	Welcomes []string
	FailSend bool
}

// NewCaptureNotifier creates an empty capture notifier.
func NewCaptureNotifier() *CaptureNotifier {
	return &CaptureNotifier{Codes: make(map[string]string)}
}

// SendCode records the code for the address.
func (n *CaptureNotifier) SendCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailSend {
		return errors.New("smtp unavailable")
	}
	n.Codes[email] = code
	return nil
}

// SendWelcome records the welcome recipient.
func (n *CaptureNotifier) SendWelcome(_ context.Context, email, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailSend {
		return errors.New("smtp unavailable")
	}
	n.Welcomes = append(n.Welcomes, email)
	return nil
}

// LastCode returns the last code sent to the address.
func (n *CaptureNotifier) LastCode(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.Codes[email]
}
