package auth

import (
	"crypto/rand"
	"encoding/hex"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost makes a single hash take a few hundred milliseconds on current hardware.
const DefaultCost = 13

// Hasher wraps bcrypt with a configurable cost; tests lower it to bcrypt.MinCost.
type Hasher struct {
	Cost int
}

func (h Hasher) Hash(password string) (string, error) {
	var cost = h.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h Hasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// newResetToken returns 32 random bytes, hex encoded.
func newResetToken() (string, error) {
	var buffer = make([]byte, 32)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}
