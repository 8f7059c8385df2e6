// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"golang.org/x/crypto/bcrypt"

	"curator/config"
	"curator/internal/domain/service"
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher is the constructor for bcryptHasher. The cost factor
// comes from configuration, falling back to the bcrypt default.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	if cfg != nil && cfg.Auth != nil && cfg.Auth.BcryptCost > 0 {
		cost = cfg.Auth.BcryptCost
	}

	return &bcryptHasher{cost: cost}
}

// NewBcryptHasherWithCost builds a hasher with an explicit cost factor.
func NewBcryptHasherWithCost(cost int) service.PasswordHasher {
	return &bcryptHasher{cost: cost}
}

// Hash generates a salted hash from a plaintext credential using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(credential string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(credential), h.cost)
	return string(bytes), err
}

// Check compares a plaintext credential with a bcrypt hash.
// bcrypt's comparison is constant-time.
func (h *bcryptHasher) Check(credential, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential))
	// err is nil if the credential and hash match.
	return err == nil
}
