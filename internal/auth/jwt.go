package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenExpired is returned when a token is well formed and signed but past its expiry
var ErrTokenExpired = errors.New("token has expired")

// AccessClaims are carried by the short lived access token
type AccessClaims struct {
	AccountID string `json:"id"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by the long lived refresh token
type RefreshClaims struct {
	AccountID string `json:"id"`
	Phone     string `json:"phone"`
	jwt.RegisteredClaims
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken      string `json:"-"`
	RefreshToken     string `json:"-"`
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

// TokenManager signs and verifies session tokens with two distinct secrets
type TokenManager struct {
	accessSecret      []byte
	refreshSecret     []byte
	issuer            string
	accessExpiration  time.Duration
	refreshExpiration time.Duration
}

// NewTokenManager creates a new token manager
func NewTokenManager(accessSecret, refreshSecret, issuer string, accessExpiration, refreshExpiration time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:      []byte(accessSecret),
		refreshSecret:     []byte(refreshSecret),
		issuer:            issuer,
		accessExpiration:  accessExpiration,
		refreshExpiration: refreshExpiration,
	}
}

// GenerateTokenPair mints an access and a refresh token for the account
func (tm *TokenManager) GenerateTokenPair(account *Account, now time.Time) (*TokenPair, error) {
	access := &AccessClaims{
		AccountID:        account.ID,
		RegisteredClaims: tm.registered(account.ID, now, tm.accessExpiration),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(tm.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := &RefreshClaims{
		AccountID:        account.ID,
		Phone:            account.Phone,
		RegisteredClaims: tm.registered(account.ID, now, tm.refreshExpiration),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(tm.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  tm.accessExpiration,
		RefreshExpiresIn: tm.refreshExpiration,
	}, nil
}

func (tm *TokenManager) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    tm.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// ValidateAccessToken verifies signature and expiry of an access token.
// An expired but otherwise valid token yields ErrTokenExpired.
func (tm *TokenManager) ValidateAccessToken(tokenString string, now time.Time) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := tm.parse(tokenString, claims, tm.accessSecret, now); err != nil {
		return nil, err
	}
	if claims.AccountID == "" {
		return nil, fmt.Errorf("invalid token: missing account id")
	}
	return claims, nil
}

// ValidateRefreshToken verifies signature and expiry of a refresh token
func (tm *TokenManager) ValidateRefreshToken(tokenString string, now time.Time) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := tm.parse(tokenString, claims, tm.refreshSecret, now); err != nil {
		return nil, err
	}
	if claims.AccountID == "" || claims.Phone == "" {
		return nil, fmt.Errorf("invalid token: missing claims")
	}
	return claims, nil
}

func (tm *TokenManager) parse(tokenString string, claims jwt.Claims, secret []byte, now time.Time) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return fmt.Errorf("invalid token")
	}

	return nil
}
