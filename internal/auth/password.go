package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tracklite/tracklite-api/internal/constants"
)

var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", constants.MinPasswordLength)

// PasswordService hashes and verifies passwords with bcrypt. The cost is
// injectable so tests can use the minimum cost instead of eating ~250ms per
// hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default bcrypt cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: bcrypt.DefaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Intended for tests; do not lower the cost in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password. Passwords shorter than the
// minimum length are rejected before any hashing happens.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. bcrypt compares
// in constant time internally.
func (p *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
