package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// hashCost matches the salt rounds the account data was originally written
// with; raising it would leave old hashes verifiable but slower to migrate.
const hashCost = 10

func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// NormalizeEmail folds an address to its canonical stored form. Every lookup
// and uniqueness check must go through this so "A@x.com" and "a@x.com" hit
// the same document.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
