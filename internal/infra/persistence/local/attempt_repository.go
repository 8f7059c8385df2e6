package local

import (
	"context"

	"curator/internal/domain/entity"
	"curator/internal/domain/repository"

	"github.com/pkg/errors"
)

const attemptKeyPrefix = "login_attempts_"

// attemptRepository implements repository.AttemptRepository, one record
// per `login_attempts_<username>` key.
type attemptRepository struct {
	store *Store
}

// NewAttemptRepository is the constructor for attemptRepository.
func NewAttemptRepository(store *Store) repository.AttemptRepository {
	return &attemptRepository{store: store}
}

// Find retrieves the attempt record for a username.
func (r *attemptRepository) Find(_ context.Context, username string) (*entity.LoginAttempt, error) {
	var attempt entity.LoginAttempt
	ok, err := r.store.Get(attemptKeyPrefix+username, &attempt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load login attempts")
	}
	if !ok {
		return nil, repository.ErrAttemptNotFound
	}

	return &attempt, nil
}

// Save persists an attempt record, overwriting any existing one.
func (r *attemptRepository) Save(_ context.Context, attempt *entity.LoginAttempt) error {
	return errors.Wrap(
		r.store.Put(attemptKeyPrefix+attempt.Username, attempt),
		"failed to persist login attempts",
	)
}

// Delete removes the attempt record.
func (r *attemptRepository) Delete(_ context.Context, username string) error {
	return errors.Wrap(r.store.Delete(attemptKeyPrefix+username), "failed to delete login attempts")
}
