// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilscan/veilscan/internal/apperror"
	"github.com/veilscan/veilscan/internal/services/auth"
	"github.com/veilscan/veilscan/internal/testutil"
)

func TestVerify(t *testing.T) {
	svc, repo, notifier := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "jane@example.com", "Str0ngPass", "")
	require.NoError(t, err)
	code := notifier.LastCode("jane@example.com")
	require.Len(t, code, auth.CodeDigits)

	result, err := svc.Verify(ctx, "jane@example.com", code)

	require.NoError(t, err)
	assert.True(t, result.User.IsVerified)
	assert.NotEmpty(t, result.Token)
	assert.Contains(t, notifier.Welcomes, "jane@example.com")

	stored, err := repo.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.False(t, stored.HasOutstandingCode())
}

func TestVerify_WrongCodeLeavesCodeOutstanding(t *testing.T) {
	svc, repo, notifier := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "jane@example.com", "Str0ngPass", "")
	require.NoError(t, err)
	code := notifier.LastCode("jane@example.com")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err = svc.Verify(ctx, "jane@example.com", wrong)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))

	// The rejection consumed nothing: the real code still works.
	stored, err := repo.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, stored.HasOutstandingCode())

	_, err = svc.Verify(ctx, "jane@example.com", code)
	assert.NoError(t, err)
}

func TestVerify_ExpiredCodeRejected(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()
	user := testutil.NewUnverifiedUser(t, repo, "jane@example.com")

	code := "123456"
	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.SetOneTimeCode(ctx, user.ID, auth.HashCode(code), expired))

	_, err := svc.Verify(ctx, "jane@example.com", code)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
}

func TestVerify_CodeIsSingleUse(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()
	user := testutil.NewUnverifiedUser(t, repo, "jane@example.com")

	code := "123456"
	require.NoError(t, repo.SetOneTimeCode(ctx, user.ID, auth.HashCode(code), time.Now().UTC().Add(time.Minute)))

	var wg sync.WaitGroup
	successes := make([]bool, 4)
	for i := range successes {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			ok, err := svc.ConsumeCode(ctx, user.ID, code)
			successes[idx] = err == nil && ok
		}(i)
	}
	wg.Wait()

	won := 0
	for _, ok := range successes {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestVerify_AlreadyVerified(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	testutil.NewTestUser(t, repo, "jane@example.com")

	_, err := svc.Verify(context.Background(), "jane@example.com", "123456")
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestVerify_UnknownUser(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Verify(context.Background(), "nobody@example.com", "123456")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestResendCode_InvalidatesPreviousCode(t *testing.T) {
	svc, _, notifier := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "jane@example.com", "Str0ngPass", "")
	require.NoError(t, err)
	first := notifier.LastCode("jane@example.com")

	delivered, err := svc.ResendCode(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, delivered)
	second := notifier.LastCode("jane@example.com")

	if first != second {
		_, err = svc.Verify(ctx, "jane@example.com", first)
		assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
	}

	_, err = svc.Verify(ctx, "jane@example.com", second)
	assert.NoError(t, err)
}

func TestResendCode_VerifiedAccount(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	testutil.NewTestUser(t, repo, "jane@example.com")

	_, err := svc.ResendCode(context.Background(), "jane@example.com")
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestResendCode_MailFailureReportsUndelivered(t *testing.T) {
	svc, _, notifier := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "jane@example.com", "Str0ngPass", "")
	require.NoError(t, err)

	notifier.FailSend = true
	delivered, err := svc.ResendCode(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestHashCode_Deterministic(t *testing.T) {
	assert.Equal(t, auth.HashCode("123456"), auth.HashCode("123456"))
	assert.NotEqual(t, auth.HashCode("123456"), auth.HashCode("654321"))
	assert.NotEqual(t, "123456", auth.HashCode("123456"))
}
