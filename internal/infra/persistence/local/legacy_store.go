package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"curator/config"
	"curator/internal/domain/repository"

	"github.com/pkg/errors"
)

const (
	legacyImagesDirName = "images"
	legacyKVFileName    = "legacy_store.json"
)

// legacyImageStore exposes the pre-migration image blobs: one file per
// opaque key under the legacy images directory. Strictly read-only;
// migration must leave the legacy sources intact as a fallback.
type legacyImageStore struct {
	dir string
}

// NewLegacyImageStore is the constructor for legacyImageStore.
func NewLegacyImageStore(cfg *config.Config) repository.LegacyImageStore {
	return &legacyImageStore{dir: filepath.Join(legacyDir(cfg), legacyImagesDirName)}
}

// Keys enumerates every stored image key.
func (s *legacyImageStore) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to enumerate legacy images")
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		keys = append(keys, entry.Name())
	}

	return keys, nil
}

// Get fetches the binary payload stored under a key.
func (s *legacyImageStore) Get(_ context.Context, key string) ([]byte, error) {
	blob, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read legacy image %s", key)
	}

	return blob, nil
}

// legacyKVStore exposes the legacy string entries (content list and
// settings blobs) from a single JSON file of string values.
type legacyKVStore struct {
	path string
}

// NewLegacyKVStore is the constructor for legacyKVStore.
func NewLegacyKVStore(cfg *config.Config) repository.LegacyKVStore {
	return &legacyKVStore{path: filepath.Join(legacyDir(cfg), legacyKVFileName)}
}

// Get returns the raw string stored under key; ok reports presence.
// The file is re-read per call: it is small, and the legacy area can be
// replaced out-of-band between boots.
func (s *legacyKVStore) Get(_ context.Context, key string) (string, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}

		return "", false, errors.Wrap(err, "failed to read legacy store")
	}

	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", false, errors.Wrap(err, "failed to decode legacy store")
	}

	value, ok := data[key]

	return value, ok, nil
}

func legacyDir(cfg *config.Config) string {
	if cfg != nil && cfg.Local != nil && cfg.Local.LegacyDir != "" {
		return cfg.Local.LegacyDir
	}

	return "legacy"
}
