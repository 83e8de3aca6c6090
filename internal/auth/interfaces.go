package auth

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when the requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a unique key is already taken
var ErrAlreadyExists = errors.New("already exists")

// AccountStore is the durable account record keyed by phone with a secondary id index
type AccountStore interface {
	GetAccountByPhone(ctx context.Context, phone string) (*Account, error)
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	CreateAccount(ctx context.Context, account *Account) error
	UpdatePassword(ctx context.Context, id, passwordHash string, now time.Time) error
	// SetSessionToken replaces the single valid refresh token.
	SetSessionToken(ctx context.Context, id, token string, now time.Time) error
	// RotateSessionToken replaces the refresh token only while it still equals
	// current and reports whether it did.
	RotateSessionToken(ctx context.Context, id, current, next string, now time.Time) (bool, error)
	// RecordLogin stores the new refresh token and clears the failure counter.
	RecordLogin(ctx context.Context, id, token string, now time.Time) error
	// RecordLoginFailure applies the day-boundary counter rules atomically and
	// returns the resulting status. The day is taken from the time of the last
	// failure, not from updated_at.
	RecordLoginFailure(ctx context.Context, id string, limit int, now time.Time) (AccountStatus, error)
	SetRole(ctx context.Context, id, role string, now time.Time) error
}

// ChallengeStore is the durable OTP ledger keyed by phone
type ChallengeStore interface {
	GetChallenge(ctx context.Context, phone string) (*OtpChallenge, error)
	CreateChallenge(ctx context.Context, challenge *OtpChallenge) error
	// ResetChallenge starts a fresh day: send_count = 1, error_count = 0.
	ResetChallenge(ctx context.Context, phone, otpHash, requestToken string, now time.Time) error
	// ReissueChallenge increments send_count only while it is below limit and
	// reports whether a row was updated.
	ReissueChallenge(ctx context.Context, phone, otpHash, requestToken string, limit int, now time.Time) (bool, error)
	MarkAttack(ctx context.Context, phone string, now time.Time) error
	RecordOTPFailure(ctx context.Context, phone string, newDay bool, now time.Time) error
	MarkVerified(ctx context.Context, phone, verifiedToken string, now time.Time) error
	// SetVerifiedToken issues a verified token without an OTP round, creating
	// the challenge row when the phone has none.
	SetVerifiedToken(ctx context.Context, phone, verifiedToken string, now time.Time) error
	// ConsumeVerifiedToken swaps presented for replacement and reports false when
	// presented is no longer the stored verified token.
	ConsumeVerifiedToken(ctx context.Context, phone, presented, replacement string, now time.Time) (bool, error)
}

// Notifier delivers an OTP out of band
type Notifier interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// PasswordHasherInterface defines password hashing operations
type PasswordHasherInterface interface {
	HashPassword(password string) (string, error)
	ValidatePassword(password, hash string) error
}

// CodeHasherInterface defines OTP hashing operations
type CodeHasherInterface interface {
	HashOTP(code string) (string, error)
	VerifyOTP(code, hashed string) (bool, error)
}
