package repository

import (
	"context"
)

// Well-known legacy string keys read during migration. Migration never
// mutates any of them; the legacy sources stay intact as a fallback.
const (
	LegacyKeyContents          = "admin_contents"
	LegacyKeyUserSettings      = "userSettings"
	LegacyKeyWizardState       = "wizardState"
	LegacyKeyTemplateStructure = "templateStructure"
	LegacyKeyBaseTemplate      = "baseTemplate"
	LegacyKeyTemplateQuestions = "templateQuestions"
)

// LegacySettingsKeys is the closed list of named preference/state blobs
// collected by the settings migration stage.
var LegacySettingsKeys = []string{
	LegacyKeyUserSettings,
	LegacyKeyWizardState,
	LegacyKeyTemplateStructure,
	LegacyKeyBaseTemplate,
	LegacyKeyTemplateQuestions,
}

// LegacyImageStore is the read-only, enumerable opaque-key blob store
// holding previously captured images.
type LegacyImageStore interface {
	// Keys enumerates every stored image key.
	Keys(ctx context.Context) ([]string, error)

	// Get fetches the binary payload stored under a key.
	Get(ctx context.Context, key string) ([]byte, error)
}

// LegacyKVStore is the read-only string key-value area holding the
// content list and settings blobs. The second return reports presence,
// distinguishing an absent key from an empty value.
type LegacyKVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}
