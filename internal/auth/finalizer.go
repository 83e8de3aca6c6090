package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// provisionalSessionToken is stored on a new account until its first session is issued
const provisionalSessionToken = "provisional"

// CredentialFinalizer consumes a verified token to create or reset a credential
type CredentialFinalizer struct {
	accounts   AccountStore
	challenges ChallengeStore
	generator  *OTPGenerator
	passwords  PasswordHasherInterface
	sessions   *SessionManager
	guard      *LoginGuard
	window     time.Duration
	logger     logger.Logger
}

// NewCredentialFinalizer creates a new credential finalizer
func NewCredentialFinalizer(accounts AccountStore, challenges ChallengeStore, generator *OTPGenerator, passwords PasswordHasherInterface, sessions *SessionManager, guard *LoginGuard, window time.Duration, log logger.Logger) *CredentialFinalizer {
	return &CredentialFinalizer{
		accounts:   accounts,
		challenges: challenges,
		generator:  generator,
		passwords:  passwords,
		sessions:   sessions,
		guard:      guard,
		window:     window,
		logger:     log,
	}
}

// Register creates the account for a verified phone and opens its first session
func (f *CredentialFinalizer) Register(ctx context.Context, req *FinalizeRequest, now time.Time) (*SessionResult, error) {
	phone := NormalizePhone(req.Phone)

	if err := checkAccountPolicy(ctx, f.accounts, phone, AccountMustNotExist); err != nil {
		return nil, err
	}

	if err := f.checkVerifiedToken(ctx, phone, req.Token, now); err != nil {
		return nil, err
	}

	hash, err := f.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to hash password")
	}

	if err := f.consume(ctx, phone, req.Token, now); err != nil {
		return nil, err
	}

	account := &Account{
		ID:           uuid.NewString(),
		Phone:        phone,
		PasswordHash: hash,
		Role:         RoleUser,
		Status:       AccountActive,
		RandToken:    provisionalSessionToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, apperrors.New(apperrors.ErrCodeUserExists, "This phone number has already been registered.")
		}
		return nil, apperrors.InternalWithCause(err, "failed to create account")
	}

	f.logger.With("account_id", account.ID).Info("Account registered")
	return f.sessions.Open(ctx, account, now)
}

// Reset replaces the password of an existing account and opens a new session
func (f *CredentialFinalizer) Reset(ctx context.Context, req *FinalizeRequest, now time.Time) (*SessionResult, error) {
	phone := NormalizePhone(req.Phone)

	account, err := f.accounts.GetAccountByPhone(ctx, phone)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.InvalidRequest("This phone number has not been registered.")
	}
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to load account")
	}

	// The password is only compared once the caller holds a live verified token.
	if err := f.checkVerifiedToken(ctx, phone, req.Token, now); err != nil {
		return nil, err
	}

	if f.passwords.ValidatePassword(req.Password, account.PasswordHash) == nil {
		return nil, apperrors.InvalidRequest("The new password cannot be the same as the previous one.")
	}

	hash, err := f.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to hash password")
	}

	if err := f.consume(ctx, phone, req.Token, now); err != nil {
		return nil, err
	}

	if err := f.accounts.UpdatePassword(ctx, account.ID, hash, now); err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to update password")
	}

	f.logger.With("account_id", account.ID).Info("Password reset")
	return f.sessions.Open(ctx, account, now)
}

// PermitChange checks the current password of the session's account and issues
// a verified token for ConfirmChange.
func (f *CredentialFinalizer) PermitChange(ctx context.Context, accountID string, req *LoginRequest, now time.Time) (*VerifyResult, error) {
	account, err := f.sessionAccount(ctx, accountID, req.Phone)
	if err != nil {
		return nil, err
	}

	if account.Status == AccountFrozen {
		return nil, accountFrozen()
	}

	if f.passwords.ValidatePassword(req.Password, account.PasswordHash) != nil {
		if err := f.guard.RecordFailure(ctx, account, now); err != nil {
			return nil, err
		}
		return nil, invalidCredentials()
	}

	token := f.generator.GenerateToken()
	if err := f.challenges.SetVerifiedToken(ctx, account.Phone, token, now); err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to issue change token")
	}

	return &VerifyResult{Phone: account.Phone, Token: token}, nil
}

// ConfirmChange sets the new password for the session's account
func (f *CredentialFinalizer) ConfirmChange(ctx context.Context, accountID string, req *FinalizeRequest, now time.Time) (*SessionResult, error) {
	if _, err := f.sessionAccount(ctx, accountID, req.Phone); err != nil {
		return nil, err
	}
	return f.Reset(ctx, req, now)
}

func (f *CredentialFinalizer) sessionAccount(ctx context.Context, accountID, phone string) (*Account, error) {
	account, err := f.accounts.GetAccountByID(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.Unauthenticated("You are not an authenticated user.")
	}
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to load account")
	}
	if account.Phone != NormalizePhone(phone) {
		return nil, unauthorised()
	}
	return account, nil
}

// checkVerifiedToken applies the sentinel, token and window rules to the verified token
func (f *CredentialFinalizer) checkVerifiedToken(ctx context.Context, phone, token string, now time.Time) error {
	challenge, err := loadChallenge(ctx, f.challenges, phone)
	if err != nil {
		return err
	}

	if sameUTCDay(challenge.UpdatedAt, now) && challenge.ErrorCount == AttackSentinel {
		return attackSuspected()
	}

	if !tokensEqual(challenge.VerifiedToken, token) {
		if err := f.challenges.MarkAttack(ctx, phone, now); err != nil {
			return apperrors.InternalWithCause(err, "failed to update OTP challenge")
		}
		f.logger.With("phone", phone).Warn("Verified token mismatch, challenge locked")
		return apperrors.New(apperrors.ErrCodeInvalidToken, "Invalid token")
	}

	if now.Sub(challenge.UpdatedAt) > f.window {
		return apperrors.New(apperrors.ErrCodeRequestExpired, "Your request is expired. Please try again.")
	}

	return nil
}

// consume swaps the presented verified token for an unguessable one. Only one
// of several concurrent finalize calls holding the same token gets through.
func (f *CredentialFinalizer) consume(ctx context.Context, phone, token string, now time.Time) error {
	ok, err := f.challenges.ConsumeVerifiedToken(ctx, phone, token, f.generator.GenerateToken(), now)
	if err != nil {
		return apperrors.InternalWithCause(err, "failed to consume verified token")
	}
	if !ok {
		f.logger.With("phone", phone).Warn("Verified token already consumed")
		return apperrors.New(apperrors.ErrCodeInvalidToken, "Invalid token")
	}
	return nil
}
