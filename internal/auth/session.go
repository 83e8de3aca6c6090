package auth

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// Session is the outcome of silent renewal: the authenticated account and,
// when the refresh path ran, the freshly minted pair.
type Session struct {
	AccountID string
	Tokens    *TokenPair
}

// Renewed reports whether new tokens were issued
func (s *Session) Renewed() bool {
	return s.Tokens != nil
}

// SessionManager issues, renews and revokes dual-token sessions
type SessionManager struct {
	accounts  AccountStore
	tokens    *TokenManager
	passwords PasswordHasherInterface
	guard     *LoginGuard
	generator *OTPGenerator
	logger    logger.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(accounts AccountStore, tokens *TokenManager, passwords PasswordHasherInterface, guard *LoginGuard, generator *OTPGenerator, log logger.Logger) *SessionManager {
	return &SessionManager{
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		guard:     guard,
		generator: generator,
		logger:    log,
	}
}

// Login authenticates by phone and password
func (m *SessionManager) Login(ctx context.Context, req *LoginRequest, now time.Time) (*SessionResult, error) {
	phone := NormalizePhone(req.Phone)

	account, err := m.accounts.GetAccountByPhone(ctx, phone)
	if errors.Is(err, ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to load account")
	}

	if account.Status == AccountFrozen {
		return nil, accountFrozen()
	}

	if err := m.passwords.ValidatePassword(req.Password, account.PasswordHash); err != nil {
		if err := m.guard.RecordFailure(ctx, account, now); err != nil {
			return nil, err
		}
		return nil, invalidCredentials()
	}

	pair, err := m.tokens.GenerateTokenPair(account, now)
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to generate tokens")
	}
	if err := m.accounts.RecordLogin(ctx, account.ID, pair.RefreshToken, now); err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to store session")
	}

	m.logger.With("account_id", account.ID).Info("Login succeeded")
	return &SessionResult{AccountID: account.ID, Tokens: pair}, nil
}

// Open mints a pair for an account that just finished a credential flow
func (m *SessionManager) Open(ctx context.Context, account *Account, now time.Time) (*SessionResult, error) {
	pair, err := m.rotate(ctx, account, now)
	if err != nil {
		return nil, err
	}
	return &SessionResult{AccountID: account.ID, Tokens: pair}, nil
}

// Renew authenticates a request from its session artifacts, rotating the
// pair when the access token is missing or expired.
func (m *SessionManager) Renew(ctx context.Context, accessToken, refreshToken string, now time.Time) (*Session, error) {
	if refreshToken == "" {
		return nil, unauthenticated()
	}

	if accessToken != "" {
		claims, err := m.tokens.ValidateAccessToken(accessToken, now)
		if err == nil {
			return &Session{AccountID: claims.AccountID}, nil
		}
		if !errors.Is(err, ErrTokenExpired) {
			m.logger.WithError(err).Warn("Rejected tampered access token")
			return nil, attackSuspected()
		}
	}

	account, err := m.refreshAccount(ctx, refreshToken, now)
	if err != nil {
		return nil, err
	}
	if !tokensEqual(account.RandToken, refreshToken) {
		m.logger.With("account_id", account.ID).Warn("Stale refresh token presented")
		return nil, unauthenticated()
	}

	pair, err := m.tokens.GenerateTokenPair(account, now)
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to generate tokens")
	}

	// Another renewal may have rotated the slot since the account was read.
	rotated, err := m.accounts.RotateSessionToken(ctx, account.ID, refreshToken, pair.RefreshToken, now)
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to store session")
	}
	if !rotated {
		m.logger.With("account_id", account.ID).Warn("Refresh token lost a concurrent renewal")
		return nil, unauthenticated()
	}
	return &Session{AccountID: account.ID, Tokens: pair}, nil
}

// Logout rotates the stored session token to a value no client holds
func (m *SessionManager) Logout(ctx context.Context, refreshToken string, now time.Time) error {
	if refreshToken == "" {
		return unauthenticated()
	}

	account, err := m.refreshAccount(ctx, refreshToken, now)
	if err != nil {
		return err
	}

	if err := m.accounts.SetSessionToken(ctx, account.ID, m.generator.GenerateToken(), now); err != nil {
		return apperrors.InternalWithCause(err, "failed to revoke session")
	}
	m.logger.With("account_id", account.ID).Info("Logged out")
	return nil
}

// refreshAccount verifies the refresh token and loads the account its claims name
func (m *SessionManager) refreshAccount(ctx context.Context, refreshToken string, now time.Time) (*Account, error) {
	claims, err := m.tokens.ValidateRefreshToken(refreshToken, now)
	if err != nil {
		return nil, unauthenticated()
	}

	account, err := m.accounts.GetAccountByID(ctx, claims.AccountID)
	if errors.Is(err, ErrNotFound) {
		return nil, unauthenticated()
	}
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to load account")
	}
	if account.Phone != claims.Phone {
		return nil, unauthenticated()
	}
	return account, nil
}

func (m *SessionManager) rotate(ctx context.Context, account *Account, now time.Time) (*TokenPair, error) {
	pair, err := m.tokens.GenerateTokenPair(account, now)
	if err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to generate tokens")
	}
	if err := m.accounts.SetSessionToken(ctx, account.ID, pair.RefreshToken, now); err != nil {
		return nil, apperrors.InternalWithCause(err, "failed to store session")
	}
	return pair, nil
}

func unauthenticated() error {
	return apperrors.Unauthenticated("You are not an authenticated user.")
}

func invalidCredentials() error {
	return apperrors.New(apperrors.ErrCodeInvalidCredentials, "Phone number or password is incorrect.")
}

func accountFrozen() error {
	return apperrors.New(apperrors.ErrCodeAccountFrozen, "Your account has been frozen. Please contact support.")
}

func unauthorised() error {
	return apperrors.Unauthorised("You are not allowed to call this request.")
}
