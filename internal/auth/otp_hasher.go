package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

var errInvalidHash = errors.New("invalid hash format")

// argon2Params controls the OTP hash cost. OTPs live for minutes, so the
// parameters are lighter than a password hash.
type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// OTPHasher handles secure OTP hashing and verification
type OTPHasher struct {
	params argon2Params
}

// NewOTPHasher creates a new OTP hasher
func NewOTPHasher() *OTPHasher {
	return &OTPHasher{
		params: argon2Params{
			memory:      16 * 1024,
			iterations:  1,
			parallelism: 2,
			saltLength:  16,
			keyLength:   32,
		},
	}
}

// HashOTP creates a salted argon2id hash encoded as $argon2id$v=19$m=..,t=..,p=..$salt$key
func (h *OTPHasher) HashOTP(code string) (string, error) {
	salt := make([]byte, h.params.saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(code), salt, h.params.iterations, h.params.memory, h.params.parallelism, h.params.keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.memory,
		h.params.iterations,
		h.params.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyOTP verifies an OTP code against its hash in constant time
func (h *OTPHasher) VerifyOTP(code, hashed string) (bool, error) {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, errInvalidHash
	}
	if version != argon2.Version {
		return false, fmt.Errorf("incompatible argon2 version %d", version)
	}

	var p argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return false, errInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errInvalidHash
	}
	stored, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, errInvalidHash
	}

	computed := argon2.IDKey([]byte(code), salt, p.iterations, p.memory, p.parallelism, uint32(len(stored)))

	return subtle.ConstantTimeCompare(stored, computed) == 1, nil
}
