// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"curator/config"
	deliverycontext "curator/internal/delivery/context"
	"curator/internal/domain/entity"
	domainerrors "curator/internal/domain/errors"
	"curator/internal/domain/repository"
	"curator/internal/domain/service"
	"curator/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	accountRepo repository.AccountRepository
	attemptRepo repository.AttemptRepository
	sessionRepo repository.SessionRepository
	hasher      service.PasswordHasher
	tokens      service.TokenSource

	lockoutThreshold int
	lockoutWindow    time.Duration
	idleTimeout      time.Duration
	loginDelay       time.Duration
	owner            config.OwnerConfig

	logger *slog.Logger
	now    func() time.Time
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	AccountRepo repository.AccountRepository
	AttemptRepo repository.AttemptRepository
	SessionRepo repository.SessionRepository
	Hasher      service.PasswordHasher
	Tokens      service.TokenSource
	Config      *config.Config
	Logger      *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	srv := &authService{
		accountRepo: params.AccountRepo,
		attemptRepo: params.AttemptRepo,
		sessionRepo: params.SessionRepo,
		hasher:      params.Hasher,
		tokens:      params.Tokens,
		logger:      params.Logger,
		now:         time.Now,
	}

	if params.Config != nil {
		if params.Config.Auth != nil {
			srv.lockoutThreshold = params.Config.Auth.LockoutThreshold
			srv.lockoutWindow = params.Config.Auth.LockoutWindow
			srv.idleTimeout = params.Config.Auth.IdleTimeout
			srv.loginDelay = params.Config.Auth.LoginDelay
		}
		if params.Config.Owner != nil {
			srv.owner = *params.Config.Owner
		}
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Authenticate checks the lockout state, verifies the credential and mints a new session.
func (srv *authService) Authenticate(ctx context.Context, input *usecase.AuthenticateInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Debug("Starting authentication", slog.String("username", input.Username))

	locked, err := srv.checkLockout(ctx, input.Username)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check lockout state")
	}
	if locked {
		srv.log(ctx).Warn("Authentication rejected, account locked", slog.String("username", input.Username))

		// No credential check and no attempt recording happen for a
		// locked account.
		return nil, errors.Wrap(domainerrors.ErrAccountLocked, "authentication rejected")
	}

	if err := srv.applyLoginDelay(ctx); err != nil {
		return nil, errors.Wrap(err, "authentication cancelled")
	}

	account, err := srv.accountRepo.FindByUsername(ctx, input.Username)
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, errors.Wrap(err, "failed to find account")
	}

	if account == nil || !srv.hasher.Check(input.Credential, account.CredentialHash) {
		if recordErr := srv.recordFailedAttempt(ctx, input.Username); recordErr != nil {
			return nil, errors.Wrap(recordErr, "failed to record login attempt")
		}
		srv.log(ctx).Warn("Authentication failed", slog.String("username", input.Username))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "authentication failed")
	}

	// A successful login clears the attempt history entirely; the next
	// failure starts again at count 1.
	if err := srv.attemptRepo.Delete(ctx, input.Username); err != nil {
		return nil, errors.Wrap(err, "failed to clear login attempts")
	}

	token, err := srv.mintSession(ctx, account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mint session")
	}
	srv.log(ctx).Debug("Authentication succeeded", slog.String("username", input.Username))

	return &usecase.AuthOutput{Account: account.Sanitized(), Token: token}, nil
}

// CreateUser registers a new account and logs it in.
func (srv *authService) CreateUser(ctx context.Context, input *usecase.CreateUserInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting signup", slog.String("username", input.Username), slog.Bool("isOwner", input.IsOwner))

	taken, err := srv.accountRepo.Exists(ctx, input.Username)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check username availability")
	}
	if taken {
		srv.log(ctx).Warn("Signup rejected, username taken", slog.String("username", input.Username))

		return nil, errors.Wrap(domainerrors.ErrUsernameTaken, "signup rejected")
	}

	hash, err := srv.hasher.Hash(input.Credential)
	if err != nil {
		srv.log(ctx).Error("Failed to hash credential during signup", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrCredentialHashFailed, "failed to hash credential")
	}

	account := &entity.Account{
		Username:       input.Username,
		CredentialHash: hash,
		IsOwner:        input.IsOwner,
		Permissions:    entity.AllCapabilities(input.IsOwner),
		CreatedAt:      srv.now(),
	}

	if err := srv.accountRepo.Create(ctx, account); err != nil {
		return nil, errors.Wrap(err, "failed to create account")
	}

	token, err := srv.mintSession(ctx, account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mint session")
	}
	srv.log(ctx).Debug("Signup completed", slog.String("username", input.Username))

	return &usecase.AuthOutput{Account: account.Sanitized(), Token: token}, nil
}

// RestoreSession resolves the current session pointer at boot.
func (srv *authService) RestoreSession(ctx context.Context) (*usecase.Identity, error) {
	token, err := srv.sessionRepo.CurrentToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read current session pointer")
	}
	if token == "" {
		return nil, nil
	}

	identity, err := srv.resolveSession(ctx, token)
	if err != nil {
		if errors.Is(err, domainerrors.ErrSessionNotFound) || errors.Is(err, domainerrors.ErrSessionExpired) {
			// Stale pointer or idle timeout: drop the pointer and report
			// "no session" rather than an error at boot.
			if clearErr := srv.sessionRepo.ClearCurrent(ctx); clearErr != nil {
				return nil, errors.Wrap(clearErr, "failed to clear current session pointer")
			}

			return nil, nil
		}

		return nil, err
	}

	return identity, nil
}

// ValidateToken resolves an explicit session token with the same lazy
// idle-timeout check as RestoreSession.
func (srv *authService) ValidateToken(ctx context.Context, token string) (*usecase.Identity, error) {
	return srv.resolveSession(ctx, token)
}

// Logout deletes the current session and clears the pointer.
func (srv *authService) Logout(ctx context.Context) error {
	token, err := srv.sessionRepo.CurrentToken(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read current session pointer")
	}

	if token != "" {
		if err := srv.sessionRepo.Delete(ctx, token); err != nil {
			return errors.Wrap(err, "failed to delete session")
		}
	}

	if err := srv.sessionRepo.ClearCurrent(ctx); err != nil {
		return errors.Wrap(err, "failed to clear current session pointer")
	}
	srv.log(ctx).Info("Logged out")

	return nil
}

// BootstrapOwnerAccount seeds the configured owner account when absent.
func (srv *authService) BootstrapOwnerAccount(ctx context.Context) error {
	exists, err := srv.accountRepo.Exists(ctx, srv.owner.Username)
	if err != nil {
		return errors.Wrap(err, "failed to check owner account")
	}
	if exists {
		return nil
	}

	hash, err := srv.hasher.Hash(srv.owner.Credential)
	if err != nil {
		return errors.Wrap(domainerrors.ErrCredentialHashFailed, "failed to hash owner credential")
	}

	account := &entity.Account{
		Username:       srv.owner.Username,
		CredentialHash: hash,
		IsOwner:        true,
		Permissions:    entity.AllCapabilities(true),
		CreatedAt:      srv.now(),
	}

	if err := srv.accountRepo.Create(ctx, account); err != nil {
		return errors.Wrap(err, "failed to create owner account")
	}
	srv.log(ctx).Info("Owner account bootstrapped", slog.String("username", srv.owner.Username))

	return nil
}

// checkLockout evaluates the lazy lockout state machine: a stale record
// (window elapsed) resets to zero before the attempt is evaluated.
func (srv *authService) checkLockout(ctx context.Context, username string) (bool, error) {
	attempt, err := srv.attemptRepo.Find(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			return false, nil
		}

		return false, errors.Wrap(err, "failed to find login attempts")
	}

	now := srv.now()
	if attempt.Expired(now, srv.lockoutWindow) {
		if err := srv.attemptRepo.Delete(ctx, username); err != nil {
			return false, errors.Wrap(err, "failed to reset stale login attempts")
		}

		return false, nil
	}

	return attempt.Locked(now, srv.lockoutThreshold, srv.lockoutWindow), nil
}

// recordFailedAttempt creates or increments the attempt record.
func (srv *authService) recordFailedAttempt(ctx context.Context, username string) error {
	attempt, err := srv.attemptRepo.Find(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrAttemptNotFound) {
			return errors.Wrap(err, "failed to find login attempts")
		}
		attempt = &entity.LoginAttempt{Username: username}
	}

	attempt.Count++
	attempt.LastAttemptAt = srv.now()

	return errors.Wrap(srv.attemptRepo.Save(ctx, attempt), "failed to save login attempts")
}

// applyLoginDelay pads the credential check to a fixed response time so
// lookup misses are indistinguishable from mismatches.
func (srv *authService) applyLoginDelay(ctx context.Context) error {
	if srv.loginDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(srv.loginDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	case <-timer.C:
		return nil
	}
}

// mintSession creates, persists and marks current a fresh session.
func (srv *authService) mintSession(ctx context.Context, account *entity.Account) (string, error) {
	now := srv.now()
	session := &entity.Session{
		Token:          srv.tokens.NewToken(),
		Username:       account.Username,
		IsOwner:        account.IsOwner,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := srv.sessionRepo.Save(ctx, session); err != nil {
		return "", errors.Wrap(err, "failed to save session")
	}
	if err := srv.sessionRepo.SetCurrent(ctx, session.Token); err != nil {
		return "", errors.Wrap(err, "failed to set current session")
	}

	return session.Token, nil
}

// resolveSession loads a session by token, applies the idle timeout
// lazily and resolves the owning account. The session's LastActivityAt
// is deliberately not refreshed on reads.
func (srv *authService) resolveSession(ctx context.Context, token string) (*usecase.Identity, error) {
	session, err := srv.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, errors.Wrap(domainerrors.ErrSessionNotFound, "session not found")
		}

		return nil, errors.Wrap(err, "failed to find session")
	}

	if session.IdleExpired(srv.now(), srv.idleTimeout) {
		if err := srv.sessionRepo.Delete(ctx, token); err != nil {
			return nil, errors.Wrap(err, "failed to delete expired session")
		}
		srv.log(ctx).Info("Session expired", slog.String("username", session.Username))

		return nil, errors.Wrap(domainerrors.ErrSessionExpired, "session idle timeout exceeded")
	}

	account, err := srv.accountRepo.FindByUsername(ctx, session.Username)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve session account")
	}

	return &usecase.Identity{Account: account.Sanitized(), Session: session}, nil
}
