// Package password hashes and verifies user credentials with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

type Hasher struct {
	cost int
	// dummy is a hash at the same cost, compared against when a user has no
	// stored hash.
	dummy []byte
}

// NewHasher returns a Hasher with the given bcrypt cost. Values outside
// bcrypt's accepted range fall back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("city-marketplace-timing-equalizer"), cost)
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash returns a salted bcrypt hash. Two calls with the same password
// produce different strings.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. A missing or malformed hash
// is a mismatch, never an error.
func (h *Hasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Equalize burns one comparison's worth of CPU. Call it when there is no
// stored hash to check so the response takes as long as a real mismatch.
func (h *Hasher) Equalize(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
