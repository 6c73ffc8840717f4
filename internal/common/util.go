package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandBase64String returns size random bytes in standard base64 encoding.
// Refresh tokens are produced with size 32.
func MakeRandBase64String(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	defer WipeByteArray(b)
	return base64.StdEncoding.EncodeToString(b), nil
}

// WipeByteArray zeroes b in place.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
