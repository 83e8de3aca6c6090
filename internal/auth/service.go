package auth

import (
	"context"
	"errors"
	"time"

	"github.com/taqiudeen275/furniture-auth/internal/config"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// Service handles authentication business logic
type Service struct {
	accounts  AccountStore
	validator *Validator
	issuer    *OTPIssuer
	verifier  *OTPVerifier
	finalizer *CredentialFinalizer
	sessions  *SessionManager
	clock     func() time.Time
	logger    logger.Logger
}

// NewService wires the OTP, credential and session components over the given stores
func NewService(accounts AccountStore, challenges ChallengeStore, notifier Notifier, cfg config.AuthConfig, log logger.Logger) *Service {
	generator := NewOTPGenerator(cfg.UseTestOTP)
	codes := NewOTPHasher()
	passwords := NewPasswordHasher(cfg.BcryptCost)
	tokens := NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.Issuer, cfg.AccessExpiration, cfg.RefreshExpiration)

	guard := NewLoginGuard(accounts, cfg.LoginFailureLimit, log)
	sessions := NewSessionManager(accounts, tokens, passwords, guard, generator, log)

	return &Service{
		accounts:  accounts,
		validator: NewValidator(),
		issuer:    NewOTPIssuer(accounts, challenges, generator, codes, notifier, cfg.DailyOTPLimit, log),
		verifier:  NewOTPVerifier(accounts, challenges, generator, codes, cfg.OTPExpiration, log),
		finalizer: NewCredentialFinalizer(accounts, challenges, generator, passwords, sessions, guard, cfg.VerifiedExpiration, log),
		sessions:  sessions,
		clock:     time.Now,
		logger:    log,
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// RequestRegistration issues an OTP for a phone that has no account yet
func (s *Service) RequestRegistration(ctx context.Context, req *IssueOTPRequest) (*IssueResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.issuer.Issue(ctx, req.Phone, AccountMustNotExist, s.now())
}

// VerifyRegistration checks the registration OTP
func (s *Service) VerifyRegistration(ctx context.Context, req *VerifyOTPRequest) (*VerifyResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.verifier.Verify(ctx, req, AccountMustNotExist, s.now())
}

// Register creates the account and opens its session
func (s *Service) Register(ctx context.Context, req *FinalizeRequest) (*SessionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.finalizer.Register(ctx, req, s.now())
}

// RequestReset issues an OTP for an existing account
func (s *Service) RequestReset(ctx context.Context, req *IssueOTPRequest) (*IssueResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.issuer.Issue(ctx, req.Phone, AccountMustExist, s.now())
}

// VerifyReset checks the password reset OTP
func (s *Service) VerifyReset(ctx context.Context, req *VerifyOTPRequest) (*VerifyResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.verifier.Verify(ctx, req, AccountMustExist, s.now())
}

// ResetPassword sets a new password after a verified reset OTP
func (s *Service) ResetPassword(ctx context.Context, req *FinalizeRequest) (*SessionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.finalizer.Reset(ctx, req, s.now())
}

// Login authenticates by phone and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*SessionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.sessions.Login(ctx, req, s.now())
}

// Logout revokes the session of the presented refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Logout(ctx, refreshToken, s.now())
}

// Renew authenticates a request and rotates its tokens when needed
func (s *Service) Renew(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	return s.sessions.Renew(ctx, accessToken, refreshToken, s.now())
}

// ChangePassword checks the current password and issues a change token
func (s *Service) ChangePassword(ctx context.Context, accountID string, req *LoginRequest) (*VerifyResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.finalizer.PermitChange(ctx, accountID, req, s.now())
}

// ConfirmChange applies the new password of a permitted change
func (s *Service) ConfirmChange(ctx context.Context, accountID string, req *FinalizeRequest) (*SessionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.finalizer.ConfirmChange(ctx, accountID, req, s.now())
}

// GetAccount returns the account of an authenticated session
func (s *Service) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return nil, unauthenticated()
	}
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to load account")
	}
	return account, nil
}

// PromoteAccount assigns a role to the account registered with phone
func (s *Service) PromoteAccount(ctx context.Context, phone, role string) (*Account, error) {
	switch role {
	case RoleUser, RoleAdmin, RoleAuthor:
	default:
		return nil, apperrors.ValidationError("role", "role must be USER, ADMIN or AUTHOR")
	}

	account, err := s.accounts.GetAccountByPhone(ctx, NormalizePhone(phone))
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.InvalidRequest("This phone number has not been registered.")
	}
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to load account")
	}

	if err := s.accounts.SetRole(ctx, account.ID, role, s.now()); err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to set role")
	}
	account.Role = role
	s.logger.With("account_id", account.ID).Info("Role set to %s", role)
	return account, nil
}
