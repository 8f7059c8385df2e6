// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"curator/internal/domain/entity"
)

// Domain-specific errors for credential-store persistence. The
// application layer handles these without depending on storage details.
var (
	// ErrAccountNotFound is returned when no account exists for a username.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAttemptNotFound is returned when no login-attempt record exists.
	ErrAttemptNotFound = errors.New("login attempt record not found")
	// ErrSessionNotFound is returned when a session record is not found.
	ErrSessionNotFound = errors.New("session not found")
)

// AccountRepository defines the standard operations for account persistence.
// Accounts are created by signup or the owner bootstrap and never deleted here.
type AccountRepository interface {
	// Create persists a new account. Fails if the username already exists.
	Create(ctx context.Context, account *entity.Account) error

	// FindByUsername retrieves an account by its unique username.
	FindByUsername(ctx context.Context, username string) (*entity.Account, error)

	// Exists reports whether an account with the username is stored.
	Exists(ctx context.Context, username string) (bool, error)
}

// AttemptRepository tracks consecutive failed login attempts per username.
type AttemptRepository interface {
	// Find retrieves the attempt record for a username.
	Find(ctx context.Context, username string) (*entity.LoginAttempt, error)

	// Save persists an attempt record, overwriting any existing one.
	Save(ctx context.Context, attempt *entity.LoginAttempt) error

	// Delete removes the attempt record. Deleting an absent record is not an error.
	Delete(ctx context.Context, username string) error
}

// SessionRepository persists login sessions and the single "current
// session" pointer for this profile.
type SessionRepository interface {
	// Save persists a session keyed by its token.
	Save(ctx context.Context, session *entity.Session) error

	// FindByToken retrieves a session by its opaque token.
	FindByToken(ctx context.Context, token string) (*entity.Session, error)

	// Delete removes a session record. Deleting an absent record is not an error.
	Delete(ctx context.Context, token string) error

	// SetCurrent marks the token as the current session.
	SetCurrent(ctx context.Context, token string) error

	// CurrentToken returns the current session token, or "" when none is set.
	CurrentToken(ctx context.Context) (string, error)

	// ClearCurrent unsets the current session pointer.
	ClearCurrent(ctx context.Context) error
}
