package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// TestOTP is the fixed code used when the test OTP flag is enabled
const TestOTP = "123456"

const otpLength = 6

// OTPGenerator produces one-time codes and opaque correlation tokens
type OTPGenerator struct {
	useTestOTP bool
}

// NewOTPGenerator creates a new OTP generator
func NewOTPGenerator(useTestOTP bool) *OTPGenerator {
	return &OTPGenerator{useTestOTP: useTestOTP}
}

// GenerateCode returns a numeric code of otpLength digits
func (g *OTPGenerator) GenerateCode() (string, error) {
	if g.useTestOTP {
		return TestOTP, nil
	}

	ten := big.NewInt(10)
	digits := make([]byte, otpLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate OTP digit: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}

	return string(digits), nil
}

// GenerateToken returns an opaque random token
func (g *OTPGenerator) GenerateToken() string {
	return uuid.NewString()
}
