package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"curator/config"
	"curator/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLegacyConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{Local: &config.LocalConfig{LegacyDir: t.TempDir()}}
}

func TestLegacyImageStore_EmptyDirectory(t *testing.T) {
	store := NewLegacyImageStore(newLegacyConfig(t))

	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLegacyImageStore_KeysAndGet(t *testing.T) {
	cfg := newLegacyConfig(t)
	imagesDir := filepath.Join(cfg.Local.LegacyDir, legacyImagesDirName)
	require.NoError(t, os.MkdirAll(imagesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "img_1"), []byte{0x01, 0x02}, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "banner_2"), []byte{0x03}, 0o600))

	store := NewLegacyImageStore(cfg)
	ctx := context.Background()

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"img_1", "banner_2"}, keys)

	blob, err := store.Get(ctx, "img_1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, blob)
}

func TestLegacyKVStore_AbsentFileMeansAbsentKeys(t *testing.T) {
	store := NewLegacyKVStore(newLegacyConfig(t))

	_, ok, err := store.Get(context.Background(), repository.LegacyKeyContents)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLegacyKVStore_Get(t *testing.T) {
	cfg := newLegacyConfig(t)
	payload := `{"admin_contents":"[]","userSettings":"{\"theme\":\"dark\"}"}`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Local.LegacyDir, legacyKVFileName), []byte(payload), 0o600))

	store := NewLegacyKVStore(cfg)
	ctx := context.Background()

	value, ok, err := store.Get(ctx, repository.LegacyKeyUserSettings)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"theme":"dark"}`, value)

	_, ok, err = store.Get(ctx, repository.LegacyKeyWizardState)
	require.NoError(t, err)
	assert.False(t, ok)
}
