package local

import (
	"context"

	"curator/internal/domain/entity"
	domainerrors "curator/internal/domain/errors"
	"curator/internal/domain/repository"

	"github.com/pkg/errors"
)

const accountKeyPrefix = "user_"

// accountRepository implements repository.AccountRepository on the
// file-backed Store, one record per `user_<username>` key.
type accountRepository struct {
	store *Store
}

// NewAccountRepository is the constructor for accountRepository.
func NewAccountRepository(store *Store) repository.AccountRepository {
	return &accountRepository{store: store}
}

// Create persists a new account. Fails if the username already exists.
func (r *accountRepository) Create(_ context.Context, account *entity.Account) error {
	key := accountKeyPrefix + account.Username
	if r.store.Has(key) {
		return errors.Wrap(domainerrors.ErrUsernameTaken, "account already exists")
	}

	return errors.Wrap(r.store.Put(key, account), "failed to persist account")
}

// FindByUsername retrieves an account by its unique username.
func (r *accountRepository) FindByUsername(_ context.Context, username string) (*entity.Account, error) {
	var account entity.Account
	ok, err := r.store.Get(accountKeyPrefix+username, &account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load account")
	}
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return &account, nil
}

// Exists reports whether an account with the username is stored.
func (r *accountRepository) Exists(_ context.Context, username string) (bool, error) {
	return r.store.Has(accountKeyPrefix + username), nil
}
