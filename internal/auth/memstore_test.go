package auth

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory AccountStore and ChallengeStore with the same
// update rules as the SQL repositories.
type memStore struct {
	mu         sync.Mutex
	accounts   map[string]*Account // by id
	challenges map[string]*OtpChallenge
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   make(map[string]*Account),
		challenges: make(map[string]*OtpChallenge),
	}
}

func (s *memStore) GetAccountByPhone(_ context.Context, phone string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Phone == phone {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) GetAccountByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) CreateAccount(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Phone == account.Phone {
			return ErrAlreadyExists
		}
	}
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *memStore) withAccount(id string, now time.Time, fn func(a *Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	fn(a)
	a.UpdatedAt = now
	return nil
}

func (s *memStore) UpdatePassword(_ context.Context, id, passwordHash string, now time.Time) error {
	return s.withAccount(id, now, func(a *Account) { a.PasswordHash = passwordHash })
}

func (s *memStore) SetSessionToken(_ context.Context, id, token string, now time.Time) error {
	return s.withAccount(id, now, func(a *Account) { a.RandToken = token })
}

func (s *memStore) RotateSessionToken(_ context.Context, id, current, next string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.RandToken != current {
		return false, nil
	}
	a.RandToken = next
	a.UpdatedAt = now
	return true, nil
}

func (s *memStore) RecordLogin(_ context.Context, id, token string, now time.Time) error {
	return s.withAccount(id, now, func(a *Account) {
		a.RandToken = token
		a.ErrorLoginCount = 0
	})
}

func (s *memStore) RecordLoginFailure(_ context.Context, id string, limit int, now time.Time) (AccountStatus, error) {
	var status AccountStatus
	err := s.withAccount(id, now, func(a *Account) {
		newDay := !sameUTCDay(a.ErrorLoginAt, now)
		a.ErrorLoginAt = now
		switch {
		case newDay:
			a.ErrorLoginCount = 1
		case a.ErrorLoginCount >= limit:
			a.Status = AccountFrozen
		default:
			a.ErrorLoginCount++
		}
		status = a.Status
	})
	return status, err
}

func (s *memStore) SetRole(_ context.Context, id, role string, now time.Time) error {
	return s.withAccount(id, now, func(a *Account) { a.Role = role })
}

func (s *memStore) GetChallenge(_ context.Context, phone string) (*OtpChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) CreateChallenge(_ context.Context, challenge *OtpChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.challenges[challenge.Phone]; ok {
		return ErrAlreadyExists
	}
	cp := *challenge
	s.challenges[challenge.Phone] = &cp
	return nil
}

func (s *memStore) withChallenge(phone string, now time.Time, fn func(c *OtpChallenge)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok {
		return ErrNotFound
	}
	fn(c)
	c.UpdatedAt = now
	return nil
}

func (s *memStore) ResetChallenge(_ context.Context, phone, otpHash, requestToken string, now time.Time) error {
	return s.withChallenge(phone, now, func(c *OtpChallenge) {
		c.OTPHash = otpHash
		c.RequestToken = requestToken
		c.VerifiedToken = ""
		c.SendCount = 1
		c.ErrorCount = 0
	})
}

func (s *memStore) ReissueChallenge(_ context.Context, phone, otpHash, requestToken string, limit int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok || c.SendCount >= limit {
		return false, nil
	}
	c.OTPHash = otpHash
	c.RequestToken = requestToken
	c.VerifiedToken = ""
	c.SendCount++
	c.UpdatedAt = now
	return true, nil
}

func (s *memStore) MarkAttack(_ context.Context, phone string, now time.Time) error {
	return s.withChallenge(phone, now, func(c *OtpChallenge) { c.ErrorCount = AttackSentinel })
}

func (s *memStore) RecordOTPFailure(_ context.Context, phone string, newDay bool, now time.Time) error {
	return s.withChallenge(phone, now, func(c *OtpChallenge) {
		if newDay {
			c.ErrorCount = 1
			return
		}
		c.ErrorCount++
	})
}

func (s *memStore) MarkVerified(_ context.Context, phone, verifiedToken string, now time.Time) error {
	return s.withChallenge(phone, now, func(c *OtpChallenge) {
		c.VerifiedToken = verifiedToken
		c.ErrorCount = 0
		c.SendCount = 1
	})
}

func (s *memStore) SetVerifiedToken(_ context.Context, phone, verifiedToken string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok {
		c = &OtpChallenge{ID: phone, Phone: phone, CreatedAt: now}
		s.challenges[phone] = c
	}
	c.VerifiedToken = verifiedToken
	c.UpdatedAt = now
	return nil
}

func (s *memStore) ConsumeVerifiedToken(_ context.Context, phone, presented, replacement string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok || c.VerifiedToken == "" || c.VerifiedToken != presented {
		return false, nil
	}
	c.VerifiedToken = replacement
	c.UpdatedAt = now
	return true, nil
}

// challenge returns a snapshot for assertions
func (s *memStore) challenge(phone string) OtpChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.challenges[phone]; ok {
		return *c
	}
	return OtpChallenge{}
}

// gatedStore holds each account-by-id and challenge read until n callers
// have read, so they all act on the same snapshot.
type gatedStore struct {
	*memStore
	gate sync.WaitGroup
}

func newGatedStore(s *memStore, n int) *gatedStore {
	g := &gatedStore{memStore: s}
	g.gate.Add(n)
	return g
}

func (g *gatedStore) GetAccountByID(ctx context.Context, id string) (*Account, error) {
	a, err := g.memStore.GetAccountByID(ctx, id)
	g.gate.Done()
	g.gate.Wait()
	return a, err
}

func (g *gatedStore) GetChallenge(ctx context.Context, phone string) (*OtpChallenge, error) {
	c, err := g.memStore.GetChallenge(ctx, phone)
	g.gate.Done()
	g.gate.Wait()
	return c, err
}

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOTP(ctx context.Context, phone, code string) error {
	args := m.Called(ctx, phone, code)
	return args.Error(0)
}

// fixedTime is a Tuesday noon in UTC
var fixedTime = time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)
