// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilscan/veilscan/internal/services/token"
)

func TestIssueAndVerify(t *testing.T) {
	svc, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	signed, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)
}

func TestNewService_RequiresSecret(t *testing.T) {
	_, err := token.NewService("", time.Hour)
	assert.Error(t, err)
}

func TestVerify_RejectsTamperedToken(t *testing.T) {
	svc, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	signed, err := svc.Issue(42)
	require.NoError(t, err)

	tampered := signed + "xx"
	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerify_RejectsForeignSecret(t *testing.T) {
	issuer, err := token.NewService("secret-one", time.Hour)
	require.NoError(t, err)
	verifier, err := token.NewService("secret-two", time.Hour)
	require.NoError(t, err)

	signed, err := issuer.Issue(42)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	svc, err := token.NewService("test-secret", time.Nanosecond)
	require.NoError(t, err)

	signed, err := svc.Issue(42)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	svc, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}
