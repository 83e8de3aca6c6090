package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// OTPIssuer creates or refreshes the OTP challenge for a phone
type OTPIssuer struct {
	accounts   AccountStore
	challenges ChallengeStore
	generator  *OTPGenerator
	hasher     CodeHasherInterface
	notifier   Notifier
	dailyLimit int
	logger     logger.Logger
}

// NewOTPIssuer creates a new OTP issuer
func NewOTPIssuer(accounts AccountStore, challenges ChallengeStore, generator *OTPGenerator, hasher CodeHasherInterface, notifier Notifier, dailyLimit int, log logger.Logger) *OTPIssuer {
	return &OTPIssuer{
		accounts:   accounts,
		challenges: challenges,
		generator:  generator,
		hasher:     hasher,
		notifier:   notifier,
		dailyLimit: dailyLimit,
		logger:     log,
	}
}

// Issue sends a new OTP for phone under the given account policy
func (i *OTPIssuer) Issue(ctx context.Context, phone string, policy AccountPolicy, now time.Time) (*IssueResult, error) {
	phone = NormalizePhone(phone)

	if err := checkAccountPolicy(ctx, i.accounts, phone, policy); err != nil {
		return nil, err
	}

	code, err := i.generator.GenerateCode()
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to generate OTP")
	}
	otpHash, err := i.hasher.HashOTP(code)
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to hash OTP")
	}
	token := i.generator.GenerateToken()

	challenge, err := i.challenges.GetChallenge(ctx, phone)
	switch {
	case errors.Is(err, ErrNotFound):
		err = i.challenges.CreateChallenge(ctx, &OtpChallenge{
			ID:           uuid.NewString(),
			Phone:        phone,
			OTPHash:      otpHash,
			RequestToken: token,
			SendCount:    1,
			ErrorCount:   0,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return nil, apperrors.InternalWithCause(err, "failed to create OTP challenge")
		}
	case err != nil:
		return nil, apperrors.InternalWithCause(err, "failed to load OTP challenge")
	default:
		if err := i.refresh(ctx, challenge, otpHash, token, now); err != nil {
			return nil, err
		}
	}

	// Delivery failures are recoverable by requesting another code.
	if err := i.notifier.SendOTP(ctx, phone, code); err != nil {
		i.logger.With("phone", phone).WithError(err).Warn("OTP delivery failed")
	}

	return &IssueResult{Phone: phone, Token: token}, nil
}

func (i *OTPIssuer) refresh(ctx context.Context, challenge *OtpChallenge, otpHash, token string, now time.Time) error {
	sameDay := sameUTCDay(challenge.UpdatedAt, now)

	if sameDay && challenge.ErrorCount == AttackSentinel {
		return attackSuspected()
	}

	if !sameDay {
		if err := i.challenges.ResetChallenge(ctx, challenge.Phone, otpHash, token, now); err != nil {
			return apperrors.InternalWithCause(err, "failed to reset OTP challenge")
		}
		return nil
	}

	if challenge.SendCount >= i.dailyLimit {
		return overLimit(i.dailyLimit)
	}

	updated, err := i.challenges.ReissueChallenge(ctx, challenge.Phone, otpHash, token, i.dailyLimit, now)
	if err != nil {
		return apperrors.InternalWithCause(err, "failed to update OTP challenge")
	}
	if !updated {
		// A concurrent request used the last send of the day.
		return overLimit(i.dailyLimit)
	}
	return nil
}

func overLimit(limit int) error {
	return apperrors.Newf(apperrors.ErrCodeOverLimit, "OTP is allowed to request %d times per day. Please try again tomorrow.", limit)
}

// checkAccountPolicy enforces the account existence rule of a call site
func checkAccountPolicy(ctx context.Context, accounts AccountStore, phone string, policy AccountPolicy) error {
	_, err := accounts.GetAccountByPhone(ctx, phone)
	exists := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return apperrors.InternalWithCause(err, "failed to load account")
	}

	switch policy {
	case AccountMustNotExist:
		if exists {
			return apperrors.New(apperrors.ErrCodeUserExists, "This phone number has already been registered.")
		}
	case AccountMustExist:
		if !exists {
			return apperrors.InvalidRequest("This phone number has not been registered.")
		}
	default:
		return apperrors.Internal(fmt.Sprintf("unknown account policy %d", policy))
	}
	return nil
}
