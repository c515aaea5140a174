package users

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into salted one-way hashes and checks them.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BcryptHasher implements Hasher with bcrypt. The salt is embedded in the output.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher builds a hasher with the given work factor. A zero cost
// selects bcrypt.DefaultCost (10).
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt encoding of plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(out), nil
}

// Verify reports whether plaintext matches hash.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
