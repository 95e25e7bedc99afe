package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
)

const (
	numberChars = "0123456789"

	// CodeLength is the number of digits in an email verification code.
	CodeLength = 6
)

var ErrInvalidLength = errors.New("length must be positive")

// GenerateCode returns a uniformly random decimal string of n digits.
// Leading zeros are allowed, so every n-digit string is possible.
func GenerateCode(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}

	result := make([]byte, n)
	for i := range result {
		ch, err := randChar(numberChars)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}
	return string(result), nil
}

// GenerateNonce returns n random bytes hex encoded.
func GenerateNonce(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
