package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// testKit wires every component over one memStore with the fixed test OTP
type testKit struct {
	store     *memStore
	notifier  *MockNotifier
	generator *OTPGenerator
	passwords *PasswordHasher
	tokens    *TokenManager
	issuer    *OTPIssuer
	verifier  *OTPVerifier
	guard     *LoginGuard
	sessions  *SessionManager
	finalizer *CredentialFinalizer
}

func newTestKit(t *testing.T) *testKit {
	t.Helper()

	log := logger.NewNop()
	store := newMemStore()
	notifier := new(MockNotifier)
	notifier.On("SendOTP", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	generator := NewOTPGenerator(true)
	codes := NewOTPHasher()
	passwords := NewPasswordHasher(bcrypt.MinCost)
	tokens := NewTokenManager("access-secret-for-tests-0123456789", "refresh-secret-for-tests-0123456789", "furniture-auth", 15*time.Minute, 30*24*time.Hour)
	guard := NewLoginGuard(store, DefaultLoginFailureLimit, log)
	sessions := NewSessionManager(store, tokens, passwords, guard, generator, log)

	return &testKit{
		store:     store,
		notifier:  notifier,
		generator: generator,
		passwords: passwords,
		tokens:    tokens,
		issuer:    NewOTPIssuer(store, store, generator, codes, notifier, 3, log),
		verifier:  NewOTPVerifier(store, store, generator, codes, 2*time.Minute, log),
		guard:     guard,
		sessions:  sessions,
		finalizer: NewCredentialFinalizer(store, store, generator, passwords, sessions, guard, 10*time.Minute, log),
	}
}

// seedAccount stores an active account with the given password
func (k *testKit) seedAccount(t *testing.T, phone, password string, at time.Time) *Account {
	t.Helper()
	hash, err := k.passwords.HashPassword(password)
	require.NoError(t, err)

	account := &Account{
		ID:           "6f1c2b8e-0d3a-4b5e-9a7c-1e2f3a4b5c6d",
		Phone:        phone,
		PasswordHash: hash,
		Role:         RoleUser,
		Status:       AccountActive,
		RandToken:    provisionalSessionToken,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	require.NoError(t, k.store.CreateAccount(context.Background(), account))
	return account
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func TestOTPIssuer_FirstIssueCreatesChallenge(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	result, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, "5551234", result.Phone)
	assert.NotEmpty(t, result.Token)

	c := k.store.challenge("5551234")
	assert.Equal(t, 1, c.SendCount)
	assert.Equal(t, 0, c.ErrorCount)
	assert.Equal(t, result.Token, c.RequestToken)
	assert.NotEqual(t, TestOTP, c.OTPHash)
	assert.Equal(t, fixedTime, c.UpdatedAt)

	k.notifier.AssertCalled(t, "SendOTP", ctx, "5551234", TestOTP)
}

func TestOTPIssuer_NormalizesPhone(t *testing.T) {
	k := newTestKit(t)

	result, err := k.issuer.Issue(context.Background(), "095551234", AccountMustNotExist, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, "5551234", result.Phone)
	assert.Equal(t, 1, k.store.challenge("5551234").SendCount)
}

func TestOTPIssuer_DailyQuota(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, i, k.store.challenge("5551234").SendCount)
	}

	_, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime.Add(5*time.Minute))
	assertCode(t, err, apperrors.ErrCodeOverLimit)
	assert.Equal(t, 3, k.store.challenge("5551234").SendCount)
}

func TestOTPIssuer_DayRolloverResetsCounters(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime)
		require.NoError(t, err)
	}
	require.NoError(t, k.store.MarkAttack(ctx, "5551234", fixedTime))

	nextDay := time.Date(2024, 3, 13, 0, 0, 1, 0, time.UTC)
	_, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, nextDay)
	require.NoError(t, err)

	c := k.store.challenge("5551234")
	assert.Equal(t, 1, c.SendCount)
	assert.Equal(t, 0, c.ErrorCount)
}

func TestOTPIssuer_DayBoundaryUsesUTC(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	east := time.FixedZone("UTC+5", 5*60*60)

	// 23:40 UTC is 04:40 on the next local date but the same UTC date.
	late := time.Date(2024, 3, 12, 23, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, late)
		require.NoError(t, err)
	}

	_, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, late.Add(10*time.Minute).In(east))
	assertCode(t, err, apperrors.ErrCodeOverLimit)
}

func TestOTPIssuer_AttackSentinelBlocksSameDay(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	_, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime)
	require.NoError(t, err)
	require.NoError(t, k.store.MarkAttack(ctx, "5551234", fixedTime))

	_, err = k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime.Add(time.Hour))
	assertCode(t, err, apperrors.ErrCodeAttackSuspected)
	assert.Equal(t, 1, k.store.challenge("5551234").SendCount)
}

func TestOTPIssuer_AccountPolicy(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	k.seedAccount(t, "5551234", "12345678", fixedTime)

	_, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime)
	assertCode(t, err, apperrors.ErrCodeUserExists)

	_, err = k.issuer.Issue(ctx, "5559999", AccountMustExist, fixedTime)
	assertCode(t, err, apperrors.ErrCodeInvalidRequest)

	_, err = k.issuer.Issue(ctx, "5551234", AccountMustExist, fixedTime)
	assert.NoError(t, err)
}

func TestOTPIssuer_DeliveryFailureDoesNotFailRequest(t *testing.T) {
	k := newTestKit(t)
	notifier := new(MockNotifier)
	notifier.On("SendOTP", mock.Anything, "5551234", TestOTP).Return(errors.New("gateway down"))
	k.issuer.notifier = notifier

	result, err := k.issuer.Issue(context.Background(), "5551234", AccountMustNotExist, fixedTime)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	notifier.AssertExpectations(t)
}

func TestOTPIssuer_EachIssueReplacesToken(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	first, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime)
	require.NoError(t, err)
	second, err := k.issuer.Issue(ctx, "5551234", AccountMustNotExist, fixedTime.Add(time.Minute))
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, second.Token, k.store.challenge("5551234").RequestToken)
}
