package local

import (
	"context"

	"curator/internal/domain/entity"
	"curator/internal/domain/repository"

	"github.com/pkg/errors"
)

const (
	sessionKeyPrefix  = "session_"
	currentSessionKey = "current_session_id"
)

// sessionRepository implements repository.SessionRepository, one record
// per `session_<token>` key plus the `current_session_id` pointer.
type sessionRepository struct {
	store *Store
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(store *Store) repository.SessionRepository {
	return &sessionRepository{store: store}
}

// Save persists a session keyed by its token.
func (r *sessionRepository) Save(_ context.Context, session *entity.Session) error {
	return errors.Wrap(r.store.Put(sessionKeyPrefix+session.Token, session), "failed to persist session")
}

// FindByToken retrieves a session by its opaque token.
func (r *sessionRepository) FindByToken(_ context.Context, token string) (*entity.Session, error) {
	var session entity.Session
	ok, err := r.store.Get(sessionKeyPrefix+token, &session)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	return &session, nil
}

// Delete removes a session record.
func (r *sessionRepository) Delete(_ context.Context, token string) error {
	return errors.Wrap(r.store.Delete(sessionKeyPrefix+token), "failed to delete session")
}

// SetCurrent marks the token as the current session.
func (r *sessionRepository) SetCurrent(_ context.Context, token string) error {
	return errors.Wrap(r.store.Put(currentSessionKey, token), "failed to set current session")
}

// CurrentToken returns the current session token, or "" when none is set.
func (r *sessionRepository) CurrentToken(_ context.Context) (string, error) {
	var token string
	ok, err := r.store.Get(currentSessionKey, &token)
	if err != nil {
		return "", errors.Wrap(err, "failed to load current session pointer")
	}
	if !ok {
		return "", nil
	}

	return token, nil
}

// ClearCurrent unsets the current session pointer.
func (r *sessionRepository) ClearCurrent(_ context.Context) error {
	return errors.Wrap(r.store.Delete(currentSessionKey), "failed to clear current session pointer")
}
