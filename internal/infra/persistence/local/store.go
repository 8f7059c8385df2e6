// Package local implements the client-resident stores: the credential
// store the session manager owns, and the read-only legacy sources the
// migration reads.
package local

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"curator/config"

	"github.com/pkg/errors"
)

const storeFileName = "credential_store.json"

// Store is a single-process, string-keyed key-value area persisted as
// one JSON file. A mutex gives each store a single-writer discipline so
// read-then-write sequences cannot race.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// NewStore opens (or creates) the credential store file under the
// configured data directory.
func NewStore(cfg *config.Config) (*Store, error) {
	dataDir := "."
	if cfg != nil && cfg.Local != nil && cfg.Local.DataDir != "" {
		dataDir = cfg.Local.DataDir
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}

	store := &Store{
		path: filepath.Join(dataDir, storeFileName),
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}

		return nil, errors.Wrap(err, "failed to read credential store")
	}

	if err := json.Unmarshal(raw, &store.data); err != nil {
		return nil, errors.Wrap(err, "failed to decode credential store")
	}

	return store, nil
}

// Get unmarshals the value stored under key into out. The boolean
// reports presence.
func (s *Store) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, errors.Wrapf(err, "failed to decode value for key %s", key)
	}

	return true, nil
}

// Has reports whether the key is present without decoding the value.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[key]

	return ok
}

// Put marshals value and persists it under key.
func (s *Store) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode value for key %s", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = raw

	return s.flushLocked()
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)

	return s.flushLocked()
}

// flushLocked writes the whole map through a temp file and rename so a
// crash mid-write never truncates the store. Callers hold s.mu.
func (s *Store) flushLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return errors.Wrap(err, "failed to encode credential store")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "failed to write credential store")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to replace credential store")
	}

	return nil
}
