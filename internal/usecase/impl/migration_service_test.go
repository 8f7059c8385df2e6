package impl

import (
	"context"
	"encoding/base64"
	"testing"

	domainerrors "curator/internal/domain/errors"
	"curator/internal/domain/repository"
	"curator/internal/domain/service"
	"curator/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLegacyData(f *migrationFixture) {
	f.images.images["img_1"] = []byte{0x01, 0x02, 0x03}
	f.images.images["banner_2"] = []byte{0x04, 0x05}
	f.legacy.entries[repository.LegacyKeyContents] = `[{"id":"c1","title":"Welcome","description":"Hello","type":"banner","imageId":"banner_2","position":1,"scale":0.5}]`
	f.legacy.entries[repository.LegacyKeyUserSettings] = `{"theme":"dark"}`
}

func TestRunIfNeeded_SkipsWhenRemoteNonEmpty(t *testing.T) {
	f := newMigrationFixture()
	seedLegacyData(f)
	f.remote.nonEmpty[repository.CollectionImages] = true

	err := f.srv.RunIfNeeded(context.Background(), f.account(), nil)
	require.NoError(t, err)

	assert.Equal(t, usecase.MigrationSkipped, f.srv.Status().Phase)

	// An already-migrated deployment must not touch the legacy sources.
	assert.Zero(t, f.images.keysCalls)
	assert.Zero(t, f.images.getCalls)
	assert.Zero(t, f.legacy.getCalls)
	assert.Empty(t, f.blobs.uploads)
}

func TestRunIfNeeded_SkipsOnFreshInstall(t *testing.T) {
	f := newMigrationFixture()

	err := f.srv.RunIfNeeded(context.Background(), f.account(), nil)
	require.NoError(t, err)

	assert.Equal(t, usecase.MigrationSkipped, f.srv.Status().Phase)
	assert.Empty(t, f.remote.batches)
	assert.Empty(t, f.remote.singles)
}

func TestRunIfNeeded_MigratesEverything(t *testing.T) {
	f := newMigrationFixture()
	seedLegacyData(f)
	progress := &progressRecorder{}

	err := f.srv.RunIfNeeded(context.Background(), f.account(), progress.record)
	require.NoError(t, err)

	// Progress is reported at the fixed stage checkpoints, in order.
	assert.Equal(t, []int{10, 40, 70, 100}, progress.seen)

	// Stage 1: blobs and image documents.
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, f.blobs.uploads["images/img_1"])
	assert.Equal(t, "image/jpeg", f.blobs.contentTypes["images/img_1"])
	assert.Equal(t, "image/png", f.blobs.contentTypes["images/banner_2"])

	imageDocs := f.remote.batches[repository.CollectionImages]
	require.Len(t, imageDocs, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03}), imageDocs["img_1"]["imageData"])
	assert.Equal(t, "image/jpeg", imageDocs["img_1"]["contentType"])
	assert.Equal(t, "image/png", imageDocs["banner_2"]["contentType"])

	// Stage 2: content documents keep their legacy ids and fields.
	contentDocs := f.remote.batches[repository.CollectionContents]
	require.Len(t, contentDocs, 1)
	doc := contentDocs["c1"]
	assert.Equal(t, "Welcome", doc["title"])
	assert.Equal(t, "banner_2", doc["imageId"])
	assert.Equal(t, 0.5, doc["scale"])
	assert.Equal(t, "admin", doc["userId"])

	// Stage 3: one settings document keyed by the identity.
	settingsDoc := f.remote.singles[repository.CollectionUserSettings]["admin"]
	require.NotNil(t, settingsDoc)
	settings, ok := settingsDoc["settings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"theme": "dark"}, settings[repository.LegacyKeyUserSettings])

	// Completion marker and terminal status.
	marker := f.remote.singles[repository.CollectionMeta]["completed"]
	require.NotNil(t, marker)
	assert.Equal(t, "admin", marker["userId"])

	status := f.srv.Status()
	assert.Equal(t, usecase.MigrationCompleted, status.Phase)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.FinishedAt)

	require.Len(t, f.events.events, 1)
	event := f.events.events[0]
	assert.Equal(t, service.EventMigrationCompleted, event.Type)
	assert.Equal(t, 2, event.ImageCount)
	assert.Equal(t, 1, event.ContentCount)
}

func TestRunIfNeeded_Idempotent(t *testing.T) {
	f := newMigrationFixture()
	seedLegacyData(f)
	ctx := context.Background()

	require.NoError(t, f.srv.RunIfNeeded(ctx, f.account(), nil))
	firstImages := f.remote.batches[repository.CollectionImages]

	// The legacy sources survive migration; a re-run with a still-empty
	// probe writes byte-identical documents under the same keys.
	require.NoError(t, f.srv.RunIfNeeded(ctx, f.account(), nil))
	assert.Equal(t, firstImages, f.remote.batches[repository.CollectionImages])
	assert.Len(t, f.remote.batches[repository.CollectionContents], 1)
}

func TestRunIfNeeded_AbsentContentListIsNoop(t *testing.T) {
	f := newMigrationFixture()
	f.images.images["img_1"] = []byte{0x01}
	progress := &progressRecorder{}

	err := f.srv.RunIfNeeded(context.Background(), f.account(), progress.record)
	require.NoError(t, err)

	assert.Equal(t, []int{10, 40, 70, 100}, progress.seen)
	assert.Empty(t, f.remote.batches[repository.CollectionContents])
	assert.Equal(t, usecase.MigrationCompleted, f.srv.Status().Phase)
}

func TestRunIfNeeded_RawSettingCarriedAsString(t *testing.T) {
	f := newMigrationFixture()
	f.legacy.entries[repository.LegacyKeyWizardState] = "step-3"

	err := f.srv.RunIfNeeded(context.Background(), f.account(), nil)
	require.NoError(t, err)

	settingsDoc := f.remote.singles[repository.CollectionUserSettings]["admin"]
	settings := settingsDoc["settings"].(map[string]any)
	assert.Equal(t, "step-3", settings[repository.LegacyKeyWizardState])
}

func TestRunIfNeeded_StageFailureIsTypedAndRetryable(t *testing.T) {
	f := newMigrationFixture()
	seedLegacyData(f)
	f.blobs.uploadErr = errors.New("bucket unreachable")
	ctx := context.Background()

	err := f.srv.RunIfNeeded(ctx, f.account(), nil)
	require.Error(t, err)

	var stageErr *domainerrors.MigrationStageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "images", stageErr.Stage())
	assert.Equal(t, "bucket unreachable", errors.Cause(stageErr.Unwrap()).Error())

	status := f.srv.Status()
	assert.Equal(t, usecase.MigrationFailed, status.Phase)
	assert.Contains(t, status.Error, "bucket unreachable")

	require.Len(t, f.events.events, 1)
	assert.Equal(t, service.EventMigrationFailed, f.events.events[0].Type)
	assert.Equal(t, "images", f.events.events[0].Stage)

	// Wholesale retry from stage 1 once the collaborator recovers.
	f.blobs.uploadErr = nil
	progress := &progressRecorder{}
	require.NoError(t, f.srv.Retry(ctx, progress.record))

	assert.Equal(t, []int{10, 40, 70, 100}, progress.seen)
	assert.Equal(t, usecase.MigrationCompleted, f.srv.Status().Phase)
	assert.Len(t, f.remote.batches[repository.CollectionImages], 2)
}

func TestRetry_AfterStageTwoFailureCompletesRemainingStages(t *testing.T) {
	f := newMigrationFixture()
	seedLegacyData(f)
	f.remote.reflectWrites = true
	f.remote.batchErrs = map[string]error{
		repository.CollectionContents: errors.New("firestore unavailable"),
	}
	ctx := context.Background()

	err := f.srv.RunIfNeeded(ctx, f.account(), nil)
	require.Error(t, err)

	var stageErr *domainerrors.MigrationStageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "contents", stageErr.Stage())

	// Stage 1 committed before the failure, so the remote is no longer
	// empty.
	require.Len(t, f.remote.batches[repository.CollectionImages], 2)
	assert.Empty(t, f.remote.batches[repository.CollectionContents])

	// Retry must finish stages 2-3 anyway: it re-runs the whole pipeline
	// rather than re-applying the emptiness gate, which would now read
	// the partial stage-1 data as a completed migration.
	f.remote.batchErrs = nil
	progress := &progressRecorder{}
	require.NoError(t, f.srv.Retry(ctx, progress.record))

	assert.Equal(t, []int{10, 40, 70, 100}, progress.seen)

	status := f.srv.Status()
	assert.Equal(t, usecase.MigrationCompleted, status.Phase)
	assert.Equal(t, 100, status.Progress)

	require.Len(t, f.remote.batches[repository.CollectionContents], 1)
	assert.Equal(t, "Welcome", f.remote.batches[repository.CollectionContents]["c1"]["title"])
	require.NotNil(t, f.remote.singles[repository.CollectionUserSettings]["admin"])
	require.NotNil(t, f.remote.singles[repository.CollectionMeta]["completed"])
}

func TestRetry_BeforeAnyRunFails(t *testing.T) {
	f := newMigrationFixture()

	err := f.srv.Retry(context.Background(), nil)
	assert.Error(t, err)
}

func TestClassifyImageKey(t *testing.T) {
	assert.Equal(t, "image/png", classifyImageKey("banner_2"))
	assert.Equal(t, "image/jpeg", classifyImageKey("img_1"))
	assert.Equal(t, "image/jpeg", classifyImageKey("photo"))
}
