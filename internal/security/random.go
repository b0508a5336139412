package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// NewRandomString returns a URL-safe random string with n bytes of entropy.
func NewRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewOTPCode returns a uniformly distributed six-digit code in
// [100000, 999999].
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
