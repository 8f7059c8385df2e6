package auth

import (
	"github.com/google/uuid"

	"curator/internal/domain/service"
)

// uuidTokenSource mints session tokens from random UUIDs.
type uuidTokenSource struct{}

// NewTokenSource is the constructor for uuidTokenSource.
func NewTokenSource() service.TokenSource {
	return &uuidTokenSource{}
}

// NewToken returns a fresh opaque token.
func (s *uuidTokenSource) NewToken() string {
	return uuid.NewString()
}
