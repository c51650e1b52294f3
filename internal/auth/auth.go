package auth

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyPrefix marks keys issued for the detection API.
const APIKeyPrefix = "fsk_"

// ErrPasswordTooLong is returned by HashPassword for passwords over 72 bytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword returns the bcrypt digest of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored digest.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSessionToken returns a random 32-byte token, hex encoded.
func GenerateSessionToken() (string, error) {
	return randomHex(32)
}

// GenerateAPIKey returns "fsk_" followed by 16 random hex characters.
func GenerateAPIKey() (string, error) {
	suffix, err := randomHex(8)
	if err != nil {
		return "", err
	}
	return APIKeyPrefix + suffix, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
