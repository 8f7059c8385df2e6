// Package usecase defines the application's business rules as interfaces,
// decoupling the delivery layer from the implementations.
package usecase

import (
	"context"

	"curator/internal/domain/entity"
)

// AuthenticateInput carries the login form fields.
type AuthenticateInput struct {
	Username   string `json:"username" validate:"required"`
	Credential string `json:"credential" validate:"required"`
}

// CreateUserInput carries the signup form fields.
type CreateUserInput struct {
	Username   string `json:"username" validate:"required"`
	Credential string `json:"credential" validate:"required"`
	IsOwner    bool   `json:"isOwner"`
}

// AuthOutput is returned by Authenticate and CreateUser. The account
// never carries the credential hash; the token identifies the session.
type AuthOutput struct {
	Account *entity.Account `json:"account"`
	Token   string          `json:"token"`
}

// Identity is the restored active identity for this profile.
type Identity struct {
	Account *entity.Account `json:"account"`
	Session *entity.Session `json:"session"`
}

// AuthUsecase owns authentication, signup, logout, session validation
// and the one-time owner-account bootstrap.
type AuthUsecase interface {
	// Authenticate checks the lockout state, verifies the credential and
	// mints a new session. Failures are typed: ErrAccountLocked when the
	// lockout threshold was reached inside the window (no credential
	// check happens in that case), ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, input *AuthenticateInput) (*AuthOutput, error)

	// CreateUser registers a new account and logs it in. Fails with
	// ErrUsernameTaken when the username exists.
	CreateUser(ctx context.Context, input *CreateUserInput) (*AuthOutput, error)

	// RestoreSession resolves the current session pointer at boot.
	// Returns (nil, nil) when no session exists; expired sessions are
	// deleted and also reported as absent.
	RestoreSession(ctx context.Context) (*Identity, error)

	// ValidateToken resolves an explicit session token, applying the same
	// lazy idle-timeout check as RestoreSession.
	ValidateToken(ctx context.Context, token string) (*Identity, error)

	// Logout deletes the current session and clears the pointer.
	Logout(ctx context.Context) error

	// BootstrapOwnerAccount seeds the configured owner account when it
	// does not exist yet. Invoked once at boot, before RestoreSession.
	BootstrapOwnerAccount(ctx context.Context) error
}
