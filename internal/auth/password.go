package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies user credentials.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher is a PasswordHasher backed by bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, falling back to
// bcrypt.DefaultCost (10) when cost is out of range.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{cost: cost}
}

// Hash returns the salted digest of plaintext.
func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest.
func (h BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

var _ PasswordHasher = BcryptHasher{}
