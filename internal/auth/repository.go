package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/taqiudeen275/furniture-auth/internal/database"
)

const accountColumns = `id, phone, password_hash, role, status, error_login_count, error_login_at, rand_token, created_at, updated_at`

const challengeColumns = `id, phone, otp_hash, request_token, verified_token, send_count, error_count, created_at, updated_at`

// AccountRepository handles account database operations
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetAccountByPhone retrieves an account by its normalized phone
func (r *AccountRepository) GetAccountByPhone(ctx context.Context, phone string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE phone = $1`
	return r.scanAccount(r.db.QueryRow(ctx, query, phone))
}

// GetAccountByID retrieves an account by ID
func (r *AccountRepository) GetAccountByID(ctx context.Context, id string) (*Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	var status string
	err := row.Scan(
		&account.ID,
		&account.Phone,
		&account.PasswordHash,
		&account.Role,
		&status,
		&account.ErrorLoginCount,
		&account.ErrorLoginAt,
		&account.RandToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	account.Status = AccountStatus(status)
	return account, nil
}

// CreateAccount inserts a new account
func (r *AccountRepository) CreateAccount(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, phone, password_hash, role, status, error_login_count, rand_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Phone,
		account.PasswordHash,
		account.Role,
		string(account.Status),
		account.ErrorLoginCount,
		account.RandToken,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, now time.Time) error {
	query := `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`
	return r.update(ctx, "update password", query, id, passwordHash, now)
}

// SetSessionToken replaces the current refresh token
func (r *AccountRepository) SetSessionToken(ctx context.Context, id, token string, now time.Time) error {
	query := `UPDATE accounts SET rand_token = $2, updated_at = $3 WHERE id = $1`
	return r.update(ctx, "set session token", query, id, token, now)
}

// RotateSessionToken swaps the refresh token only if current is still the stored one
func (r *AccountRepository) RotateSessionToken(ctx context.Context, id, current, next string, now time.Time) (bool, error) {
	query := `UPDATE accounts SET rand_token = $3, updated_at = $4 WHERE id = $1 AND rand_token = $2`

	n, err := r.db.Exec(ctx, query, id, current, next, now)
	if err != nil {
		return false, fmt.Errorf("failed to rotate session token: %w", err)
	}
	return n == 1, nil
}

// RecordLogin stores the refresh token of a successful login and clears the failure counter
func (r *AccountRepository) RecordLogin(ctx context.Context, id, token string, now time.Time) error {
	query := `UPDATE accounts SET rand_token = $2, error_login_count = 0, updated_at = $3 WHERE id = $1`
	return r.update(ctx, "record login", query, id, token, now)
}

// RecordLoginFailure applies the day-boundary failure rules in one statement.
// The UTC day of error_login_at decides whether the counter starts over.
func (r *AccountRepository) RecordLoginFailure(ctx context.Context, id string, limit int, now time.Time) (AccountStatus, error) {
	query := `
		UPDATE accounts SET
			error_login_count = CASE
				WHEN (error_login_at AT TIME ZONE 'UTC')::date <> ($3::timestamptz AT TIME ZONE 'UTC')::date THEN 1
				WHEN error_login_count >= $2::int THEN error_login_count
				ELSE error_login_count + 1
			END,
			status = CASE
				WHEN (error_login_at AT TIME ZONE 'UTC')::date = ($3::timestamptz AT TIME ZONE 'UTC')::date
					AND error_login_count >= $2::int THEN 'FROZEN'
				ELSE status
			END,
			error_login_at = $3,
			updated_at = $3
		WHERE id = $1
		RETURNING status
	`

	var status string
	if err := r.db.QueryRow(ctx, query, id, limit, now).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to record login failure: %w", err)
	}
	return AccountStatus(status), nil
}

// SetRole changes the role of an account
func (r *AccountRepository) SetRole(ctx context.Context, id, role string, now time.Time) error {
	query := `UPDATE accounts SET role = $2, updated_at = $3 WHERE id = $1`
	return r.update(ctx, "set role", query, id, role, now)
}

func (r *AccountRepository) update(ctx context.Context, op, query string, args ...interface{}) error {
	n, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ChallengeRepository handles OTP challenge database operations
type ChallengeRepository struct {
	db *database.DB
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *database.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// GetChallenge retrieves the challenge of a phone
func (r *ChallengeRepository) GetChallenge(ctx context.Context, phone string) (*OtpChallenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM otp_challenges WHERE phone = $1`

	c := &OtpChallenge{}
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&c.ID,
		&c.Phone,
		&c.OTPHash,
		&c.RequestToken,
		&c.VerifiedToken,
		&c.SendCount,
		&c.ErrorCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get OTP challenge: %w", err)
	}
	return c, nil
}

// CreateChallenge inserts the first challenge of a phone
func (r *ChallengeRepository) CreateChallenge(ctx context.Context, c *OtpChallenge) error {
	query := `
		INSERT INTO otp_challenges (id, phone, otp_hash, request_token, verified_token, send_count, error_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.Phone,
		c.OTPHash,
		c.RequestToken,
		c.VerifiedToken,
		c.SendCount,
		c.ErrorCount,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create OTP challenge: %w", err)
	}
	return nil
}

// ResetChallenge starts a new day for the challenge
func (r *ChallengeRepository) ResetChallenge(ctx context.Context, phone, otpHash, requestToken string, now time.Time) error {
	query := `
		UPDATE otp_challenges
		SET otp_hash = $2, request_token = $3, verified_token = '', send_count = 1, error_count = 0, updated_at = $4
		WHERE phone = $1
	`
	return r.update(ctx, "reset OTP challenge", query, phone, otpHash, requestToken, now)
}

// ReissueChallenge replaces the code while the daily quota allows it
func (r *ChallengeRepository) ReissueChallenge(ctx context.Context, phone, otpHash, requestToken string, limit int, now time.Time) (bool, error) {
	query := `
		UPDATE otp_challenges
		SET otp_hash = $2, request_token = $3, verified_token = '', send_count = send_count + 1, updated_at = $5
		WHERE phone = $1 AND send_count < $4
	`

	n, err := r.db.Exec(ctx, query, phone, otpHash, requestToken, limit, now)
	if err != nil {
		return false, fmt.Errorf("failed to reissue OTP challenge: %w", err)
	}
	return n == 1, nil
}

// MarkAttack pins the error counter to the sentinel
func (r *ChallengeRepository) MarkAttack(ctx context.Context, phone string, now time.Time) error {
	query := `UPDATE otp_challenges SET error_count = $2, updated_at = $3 WHERE phone = $1`
	return r.update(ctx, "mark OTP challenge", query, phone, AttackSentinel, now)
}

// RecordOTPFailure counts a wrong code
func (r *ChallengeRepository) RecordOTPFailure(ctx context.Context, phone string, newDay bool, now time.Time) error {
	query := `
		UPDATE otp_challenges
		SET error_count = CASE WHEN $2::boolean THEN 1 ELSE error_count + 1 END, updated_at = $3
		WHERE phone = $1
	`
	return r.update(ctx, "record OTP failure", query, phone, newDay, now)
}

// MarkVerified clears the counters and stores the verified token
func (r *ChallengeRepository) MarkVerified(ctx context.Context, phone, verifiedToken string, now time.Time) error {
	query := `
		UPDATE otp_challenges
		SET verified_token = $2, error_count = 0, send_count = 1, updated_at = $3
		WHERE phone = $1
	`
	return r.update(ctx, "mark OTP challenge verified", query, phone, verifiedToken, now)
}

// SetVerifiedToken stores a verified token, creating the challenge row if needed
func (r *ChallengeRepository) SetVerifiedToken(ctx context.Context, phone, verifiedToken string, now time.Time) error {
	query := `
		INSERT INTO otp_challenges (id, phone, otp_hash, request_token, verified_token, send_count, error_count, created_at, updated_at)
		VALUES ($1, $2, '', '', $3, 0, 0, $4, $4)
		ON CONFLICT (phone) DO UPDATE
		SET verified_token = EXCLUDED.verified_token, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.Exec(ctx, query, uuid.NewString(), phone, verifiedToken, now); err != nil {
		return fmt.Errorf("failed to set verified token: %w", err)
	}
	return nil
}

// ConsumeVerifiedToken overwrites the presented verified token so it cannot be replayed
func (r *ChallengeRepository) ConsumeVerifiedToken(ctx context.Context, phone, presented, replacement string, now time.Time) (bool, error) {
	query := `
		UPDATE otp_challenges SET verified_token = $3, updated_at = $4
		WHERE phone = $1 AND verified_token = $2 AND verified_token <> ''
	`

	n, err := r.db.Exec(ctx, query, phone, presented, replacement, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume verified token: %w", err)
	}
	return n == 1, nil
}

func (r *ChallengeRepository) update(ctx context.Context, op, query string, args ...interface{}) error {
	n, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
