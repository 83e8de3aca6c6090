package auth

import (
	"strings"
	"time"
)

// AccountStatus represents whether an account may log in
type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
)

// Role values stored on an account
const (
	RoleUser   = "USER"
	RoleAdmin  = "ADMIN"
	RoleAuthor = "AUTHOR"
)

// AttackSentinel is the error count that locks a challenge for the rest of the day
const AttackSentinel = 5

// Account represents a registered phone account
type Account struct {
	ID              string        `json:"id" db:"id"`
	Phone           string        `json:"phone" db:"phone"`
	PasswordHash    string        `json:"-" db:"password_hash"`
	Role            string        `json:"role" db:"role"`
	Status          AccountStatus `json:"status" db:"status"`
	ErrorLoginCount int           `json:"-" db:"error_login_count"`
	ErrorLoginAt    time.Time     `json:"-" db:"error_login_at"`
	RandToken       string        `json:"-" db:"rand_token"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// OtpChallenge is the single live OTP ledger entry for a phone
type OtpChallenge struct {
	ID            string    `json:"id" db:"id"`
	Phone         string    `json:"phone" db:"phone"`
	OTPHash       string    `json:"-" db:"otp_hash"`
	RequestToken  string    `json:"-" db:"request_token"`
	VerifiedToken string    `json:"-" db:"verified_token"`
	SendCount     int       `json:"send_count" db:"send_count"`
	ErrorCount    int       `json:"error_count" db:"error_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AccountPolicy selects the account existence rule for an OTP call site
type AccountPolicy int

const (
	// AccountMustNotExist is used by registration
	AccountMustNotExist AccountPolicy = iota
	// AccountMustExist is used by password reset and change
	AccountMustExist
)

func (p AccountPolicy) String() string {
	if p == AccountMustExist {
		return "account-must-exist"
	}
	return "account-must-not-exist"
}

// IssueOTPRequest starts an OTP challenge
type IssueOTPRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=5,max=12"`
}

// VerifyOTPRequest checks a submitted code
type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=5,max=12"`
	OTP   string `json:"otp" validate:"required,numeric,len=6"`
	Token string `json:"token" validate:"required"`
}

// FinalizeRequest sets a password using a verified token
type FinalizeRequest struct {
	Phone    string `json:"phone" validate:"required,numeric,min=5,max=12"`
	Password string `json:"password" validate:"required,numeric,len=8"`
	Token    string `json:"token" validate:"required"`
}

// LoginRequest represents a phone and password login
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,numeric,min=5,max=12"`
	Password string `json:"password" validate:"required,numeric,len=8"`
}

// IssueResult is returned after an OTP was issued
type IssueResult struct {
	Phone string `json:"phone"`
	Token string `json:"token"`
}

// VerifyResult carries the verified token for the finalize step
type VerifyResult struct {
	Phone string `json:"phone"`
	Token string `json:"token"`
}

// SessionResult is returned by every operation that opens a session
type SessionResult struct {
	AccountID string     `json:"userId"`
	Tokens    *TokenPair `json:"-"`
}

// NormalizePhone strips the leading "09" country prefix
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "09") {
		return phone[2:]
	}
	return phone
}

// sameUTCDay reports whether a and b fall on the same UTC calendar date
func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
