package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// OTPVerifier checks submitted codes against the live challenge
type OTPVerifier struct {
	accounts   AccountStore
	challenges ChallengeStore
	generator  *OTPGenerator
	hasher     CodeHasherInterface
	expiry     time.Duration
	logger     logger.Logger
}

// NewOTPVerifier creates a new OTP verifier
func NewOTPVerifier(accounts AccountStore, challenges ChallengeStore, generator *OTPGenerator, hasher CodeHasherInterface, expiry time.Duration, log logger.Logger) *OTPVerifier {
	return &OTPVerifier{
		accounts:   accounts,
		challenges: challenges,
		generator:  generator,
		hasher:     hasher,
		expiry:     expiry,
		logger:     log,
	}
}

// Verify validates the code and the request token and issues a verified token
func (v *OTPVerifier) Verify(ctx context.Context, req *VerifyOTPRequest, policy AccountPolicy, now time.Time) (*VerifyResult, error) {
	phone := NormalizePhone(req.Phone)

	if err := checkAccountPolicy(ctx, v.accounts, phone, policy); err != nil {
		return nil, err
	}

	challenge, err := loadChallenge(ctx, v.challenges, phone)
	if err != nil {
		return nil, err
	}

	sameDay := sameUTCDay(challenge.UpdatedAt, now)
	if sameDay && challenge.ErrorCount == AttackSentinel {
		return nil, attackSuspected()
	}

	if !tokensEqual(challenge.RequestToken, req.Token) {
		if err := v.challenges.MarkAttack(ctx, phone, now); err != nil {
			return nil, apperrors.InternalWithCause(err, "failed to update OTP challenge")
		}
		v.logger.With("phone", phone).Warn("OTP request token mismatch, challenge locked")
		return nil, apperrors.New(apperrors.ErrCodeInvalidToken, "Invalid token")
	}

	if now.Sub(challenge.UpdatedAt) > v.expiry {
		return nil, apperrors.New(apperrors.ErrCodeOTPExpired, "OTP is expired.")
	}

	ok, err := v.hasher.VerifyOTP(req.OTP, challenge.OTPHash)
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to verify OTP")
	}
	if !ok {
		if err := v.challenges.RecordOTPFailure(ctx, phone, !sameDay, now); err != nil {
			return nil, apperrors.InternalWithCause(err, "failed to update OTP challenge")
		}
		return nil, apperrors.New(apperrors.ErrCodeOTPInvalid, "OTP is incorrect.")
	}

	verifiedToken := v.generator.GenerateToken()
	if err := v.challenges.MarkVerified(ctx, phone, verifiedToken, now); err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to update OTP challenge")
	}

	return &VerifyResult{Phone: phone, Token: verifiedToken}, nil
}

func loadChallenge(ctx context.Context, challenges ChallengeStore, phone string) (*OtpChallenge, error) {
	challenge, err := challenges.GetChallenge(ctx, phone)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.InvalidRequest("Invalid phone number.")
	}
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to load OTP challenge")
	}
	return challenge, nil
}

func attackSuspected() error {
	return apperrors.New(apperrors.ErrCodeAttackSuspected, "This request may be an attack. Please try again tomorrow.")
}

// tokensEqual compares opaque tokens in constant time; an empty stored token never matches
func tokensEqual(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
