package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPGenerator_GenerateCode(t *testing.T) {
	generator := NewOTPGenerator(false)

	code, err := generator.GenerateCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)

	for _, char := range code {
		assert.True(t, char >= '0' && char <= '9', "code contains non-digit character: %c", char)
	}
}

func TestOTPGenerator_GenerateCodeUsesEveryDigit(t *testing.T) {
	generator := NewOTPGenerator(false)

	seen := make(map[rune]int)
	for i := 0; i < 200; i++ {
		code, err := generator.GenerateCode()
		require.NoError(t, err)
		for _, char := range code {
			seen[char]++
		}
	}

	for d := '0'; d <= '9'; d++ {
		assert.Positive(t, seen[d], "digit %c never drawn", d)
	}
}

func TestOTPGenerator_TestCode(t *testing.T) {
	code, err := NewOTPGenerator(true).GenerateCode()
	require.NoError(t, err)
	assert.Equal(t, TestOTP, code)
}

func TestOTPGenerator_GenerateToken(t *testing.T) {
	generator := NewOTPGenerator(false)
	assert.NotEqual(t, generator.GenerateToken(), generator.GenerateToken())
}

func TestOTPHasher(t *testing.T) {
	hasher := NewOTPHasher()

	hashed, err := hasher.HashOTP("482913")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$argon2id$"))
	assert.NotContains(t, hashed, "482913")

	ok, err := hasher.VerifyOTP("482913", hashed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.VerifyOTP("482914", hashed)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := hasher.HashOTP("482913")
	require.NoError(t, err)
	assert.NotEqual(t, hashed, again, "hashes should be salted")

	_, err = hasher.VerifyOTP("482913", "plain")
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(4)

	hashed, err := hasher.HashPassword("12345678")
	require.NoError(t, err)
	assert.NoError(t, hasher.ValidatePassword("12345678", hashed))
	assert.Error(t, hasher.ValidatePassword("87654321", hashed))

	_, err = hasher.HashPassword("")
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"095551234":   "5551234",
		"5551234":     "5551234",
		" 0955512 ":   "55512",
		"0095551234":  "0095551234",
		"90955512345": "90955512345",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestSameUTCDay(t *testing.T) {
	east := time.FixedZone("UTC+5", 5*60*60)

	assert.True(t, sameUTCDay(fixedTime, fixedTime.Add(11*time.Hour)))
	assert.False(t, sameUTCDay(fixedTime, fixedTime.Add(12*time.Hour)))
	assert.True(t, sameUTCDay(fixedTime, fixedTime.Add(11*time.Hour).In(east)))
}
