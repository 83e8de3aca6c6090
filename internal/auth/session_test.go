package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

func TestSessionManager_Login(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	account := k.seedAccount(t, "5551234", "12345678", fixedTime)

	result, err := k.sessions.Login(ctx, &LoginRequest{Phone: "095551234", Password: "12345678"}, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.AccountID)

	stored, err := k.store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Tokens.RefreshToken, stored.RandToken)

	access, err := k.tokens.ValidateAccessToken(result.Tokens.AccessToken, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, account.ID, access.AccountID)

	refresh, err := k.tokens.ValidateRefreshToken(result.Tokens.RefreshToken, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, "5551234", refresh.Phone)
}

func TestSessionManager_LoginUnknownPhone(t *testing.T) {
	k := newTestKit(t)

	_, err := k.sessions.Login(context.Background(), &LoginRequest{Phone: "5551234", Password: "12345678"}, fixedTime)
	assertCode(t, err, apperrors.ErrCodeInvalidCredentials)
}

func TestSessionManager_LoginFreeze(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	account := k.seedAccount(t, "5551234", "12345678", fixedTime)
	wrong := &LoginRequest{Phone: "5551234", Password: "00000000"}

	for i := 0; i < 3; i++ {
		_, err := k.sessions.Login(ctx, wrong, fixedTime.Add(time.Duration(i)*time.Minute))
		assertCode(t, err, apperrors.ErrCodeInvalidCredentials)
	}

	stored, err := k.store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, AccountFrozen, stored.Status)

	_, err = k.sessions.Login(ctx, &LoginRequest{Phone: "5551234", Password: "12345678"}, fixedTime.Add(time.Hour))
	assertCode(t, err, apperrors.ErrCodeAccountFrozen)
}

func TestSessionManager_LoginFailuresResetOnNewDay(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	account := k.seedAccount(t, "5551234", "12345678", fixedTime)
	wrong := &LoginRequest{Phone: "5551234", Password: "00000000"}

	for i := 0; i < 2; i++ {
		_, err := k.sessions.Login(ctx, wrong, fixedTime)
		assertCode(t, err, apperrors.ErrCodeInvalidCredentials)
	}

	_, err := k.sessions.Login(ctx, wrong, fixedTime.Add(24*time.Hour))
	assertCode(t, err, apperrors.ErrCodeInvalidCredentials)

	stored, err := k.store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, AccountActive, stored.Status)
	assert.Equal(t, 1, stored.ErrorLoginCount)
}

func TestSessionManager_SuccessfulLoginClearsFailures(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	account := k.seedAccount(t, "5551234", "12345678", fixedTime)

	_, err := k.sessions.Login(ctx, &LoginRequest{Phone: "5551234", Password: "00000000"}, fixedTime)
	assertCode(t, err, apperrors.ErrCodeInvalidCredentials)

	_, err = k.sessions.Login(ctx, &LoginRequest{Phone: "5551234", Password: "12345678"}, fixedTime)
	require.NoError(t, err)

	stored, err := k.store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ErrorLoginCount)
}

func login(t *testing.T, k *testKit, at time.Time) *SessionResult {
	t.Helper()
	k.seedAccount(t, "5551234", "12345678", at)
	result, err := k.sessions.Login(context.Background(), &LoginRequest{Phone: "5551234", Password: "12345678"}, at)
	require.NoError(t, err)
	return result
}

func TestSessionManager_RenewWithValidAccess(t *testing.T) {
	k := newTestKit(t)
	result := login(t, k, fixedTime)

	session, err := k.sessions.Renew(context.Background(), result.Tokens.AccessToken, result.Tokens.RefreshToken, fixedTime.Add(14*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, result.AccountID, session.AccountID)
	assert.False(t, session.Renewed())
}

func TestSessionManager_RenewRotatesRefreshToken(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	result := login(t, k, fixedTime)
	later := fixedTime.Add(16 * time.Minute)

	session, err := k.sessions.Renew(ctx, result.Tokens.AccessToken, result.Tokens.RefreshToken, later)
	require.NoError(t, err)
	require.True(t, session.Renewed())
	assert.Equal(t, result.AccountID, session.AccountID)
	assert.NotEqual(t, result.Tokens.RefreshToken, session.Tokens.RefreshToken)

	stored, err := k.store.GetAccountByID(ctx, result.AccountID)
	require.NoError(t, err)
	assert.Equal(t, session.Tokens.RefreshToken, stored.RandToken)

	// The previous refresh token is no longer accepted.
	_, err = k.sessions.Renew(ctx, "", result.Tokens.RefreshToken, later)
	assertCode(t, err, apperrors.ErrCodeUnauthenticated)

	_, err = k.sessions.Renew(ctx, "", session.Tokens.RefreshToken, later)
	assert.NoError(t, err)
}

func TestSessionManager_RenewTwiceInSameSecond(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	result := login(t, k, fixedTime)

	first, err := k.sessions.Renew(ctx, "", result.Tokens.RefreshToken, fixedTime)
	require.NoError(t, err)
	second, err := k.sessions.Renew(ctx, "", first.Tokens.RefreshToken, fixedTime)
	require.NoError(t, err)

	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)
}

func TestSessionManager_RenewFailures(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	result := login(t, k, fixedTime)

	tests := []struct {
		name    string
		access  string
		refresh string
		at      time.Time
		code    apperrors.ErrorCode
	}{
		{"missing refresh", result.Tokens.AccessToken, "", fixedTime, apperrors.ErrCodeUnauthenticated},
		{"tampered access", result.Tokens.AccessToken + "x", result.Tokens.RefreshToken, fixedTime, apperrors.ErrCodeAttackSuspected},
		{"access signed with refresh secret", result.Tokens.RefreshToken, result.Tokens.RefreshToken, fixedTime, apperrors.ErrCodeAttackSuspected},
		{"garbage refresh", "", "not-a-token", fixedTime, apperrors.ErrCodeUnauthenticated},
		{"access token as refresh", "", result.Tokens.AccessToken, fixedTime, apperrors.ErrCodeUnauthenticated},
		{"expired refresh", "", result.Tokens.RefreshToken, fixedTime.Add(31 * 24 * time.Hour), apperrors.ErrCodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := k.sessions.Renew(ctx, tt.access, tt.refresh, tt.at)
			assertCode(t, err, tt.code)
		})
	}
}

func TestSessionManager_RenewalDoesNotCarryFailuresIntoNextDay(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	dayOne := time.Date(2024, 3, 12, 22, 0, 0, 0, time.UTC)
	dayTwo := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	result := login(t, k, dayOne)
	wrong := &LoginRequest{Phone: "5551234", Password: "00000000"}

	_, err := k.sessions.Login(ctx, wrong, dayOne.Add(time.Hour))
	assertCode(t, err, apperrors.ErrCodeInvalidCredentials)

	renewed, err := k.sessions.Renew(ctx, "", result.Tokens.RefreshToken, dayTwo)
	require.NoError(t, err)
	require.True(t, renewed.Renewed())

	for i := 0; i < 2; i++ {
		_, err := k.sessions.Login(ctx, wrong, dayTwo.Add(time.Duration(i+1)*time.Minute))
		assertCode(t, err, apperrors.ErrCodeInvalidCredentials)
	}

	stored, err := k.store.GetAccountByID(ctx, result.AccountID)
	require.NoError(t, err)
	assert.Equal(t, AccountActive, stored.Status)
	assert.Equal(t, 2, stored.ErrorLoginCount)

	_, err = k.sessions.Login(ctx, wrong, dayTwo.Add(time.Hour))
	assertCode(t, err, apperrors.ErrCodeInvalidCredentials)

	stored, err = k.store.GetAccountByID(ctx, result.AccountID)
	require.NoError(t, err)
	assert.Equal(t, AccountFrozen, stored.Status)
}

func TestSessionManager_ConcurrentRenewalsRotateOnce(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	result := login(t, k, fixedTime)

	accounts := newGatedStore(k.store, 2)
	sessions := NewSessionManager(accounts, k.tokens, k.passwords, k.guard, k.generator, logger.NewNop())

	renewed := make([]*Session, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			renewed[i], errs[i] = sessions.Renew(ctx, "", result.Tokens.RefreshToken, fixedTime.Add(time.Minute))
		}(i)
	}
	wg.Wait()

	var winner *Session
	for i, err := range errs {
		if err == nil {
			require.Nil(t, winner, "both renewals succeeded")
			winner = renewed[i]
			continue
		}
		assertCode(t, err, apperrors.ErrCodeUnauthenticated)
	}
	require.NotNil(t, winner)

	stored, err := k.store.GetAccountByID(ctx, result.AccountID)
	require.NoError(t, err)
	assert.Equal(t, winner.Tokens.RefreshToken, stored.RandToken)
}

func TestSessionManager_Logout(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	result := login(t, k, fixedTime)

	require.NoError(t, k.sessions.Logout(ctx, result.Tokens.RefreshToken, fixedTime.Add(time.Minute)))

	stored, err := k.store.GetAccountByID(ctx, result.AccountID)
	require.NoError(t, err)
	assert.NotEqual(t, result.Tokens.RefreshToken, stored.RandToken)

	_, err = k.sessions.Renew(ctx, "", result.Tokens.RefreshToken, fixedTime.Add(time.Minute))
	assertCode(t, err, apperrors.ErrCodeUnauthenticated)

	err = k.sessions.Logout(ctx, "", fixedTime)
	assertCode(t, err, apperrors.ErrCodeUnauthenticated)
}
