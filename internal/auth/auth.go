// Package auth provides password hashing and credential helpers.
package auth

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const hashCost = 10

// TempPasswordLength is the length of generated temporary passwords.
const TempPasswordLength = 12

const tempPasswordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()"

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateTempPassword produces a random temporary password for newly
// created users and password resets.
func GenerateTempPassword() (string, error) {
	buf := make([]byte, TempPasswordLength)
	max := big.NewInt(int64(len(tempPasswordChars)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordChars[n.Int64()]
	}
	return string(buf), nil
}

// NewSessionToken returns an opaque session token.
func NewSessionToken() string {
	return uuid.NewString()
}
