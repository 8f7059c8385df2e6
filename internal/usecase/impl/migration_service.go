package impl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	deliverycontext "curator/internal/delivery/context"
	"curator/internal/domain/entity"
	domainerrors "curator/internal/domain/errors"
	"curator/internal/domain/repository"
	"curator/internal/domain/service"
	"curator/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Migration stage names, also carried inside MigrationStageError.
const (
	stageImages   = "images"
	stageContents = "contents"
	stageSettings = "settings"
)

// Progress checkpoints reported to the UI layer, strictly increasing.
const (
	progressImagesStart  = 10
	progressImagesDone   = 40
	progressContentsDone = 70
	progressSettingsDone = 100
)

// migrationService implements the MigrationUsecase interface.
type migrationService struct {
	remote  repository.RemoteStore
	blobs   repository.RemoteBlobStore
	images  repository.LegacyImageStore
	legacy  repository.LegacyKVStore
	events  service.EventPublisher
	logger  *slog.Logger
	now     func() time.Time

	runMu sync.Mutex // serializes pipeline runs

	stateMu      sync.Mutex
	status       usecase.MigrationStatus
	lastIdentity *entity.Account
}

// MigrationServiceParams holds dependencies for migrationService, injected by Fx.
type MigrationServiceParams struct {
	fx.In

	Remote repository.RemoteStore
	Blobs  repository.RemoteBlobStore
	Images repository.LegacyImageStore
	Legacy repository.LegacyKVStore
	Events service.EventPublisher
	Logger *slog.Logger
}

// NewMigrationService is the constructor for migrationService.
func NewMigrationService(params MigrationServiceParams) usecase.MigrationUsecase {
	return &migrationService{
		remote: params.Remote,
		blobs:  params.Blobs,
		images: params.Images,
		legacy: params.Legacy,
		events: params.Events,
		logger: params.Logger,
		now:    time.Now,
		status: usecase.MigrationStatus{Phase: usecase.MigrationIdle},
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *migrationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RunIfNeeded probes the remote store and the legacy markers, then either
// no-ops or runs the three-stage pipeline.
func (srv *migrationService) RunIfNeeded(ctx context.Context, identity *entity.Account, onProgress usecase.ProgressFunc) error {
	srv.runMu.Lock()
	defer srv.runMu.Unlock()

	srv.stateMu.Lock()
	srv.lastIdentity = identity
	srv.stateMu.Unlock()

	return srv.run(ctx, identity, onProgress)
}

// Retry re-invokes the full pipeline from stage 1 for the identity of the
// previous run. The emptiness gate is NOT re-applied: a partial failure
// has already made the remote non-empty, and every write is a keyed
// overwrite, so re-running the completed stages is safe while skipping
// would strand the unfinished ones.
func (srv *migrationService) Retry(ctx context.Context, onProgress usecase.ProgressFunc) error {
	srv.runMu.Lock()
	defer srv.runMu.Unlock()

	srv.stateMu.Lock()
	identity := srv.lastIdentity
	srv.stateMu.Unlock()

	if identity == nil {
		return errors.Wrap(domainerrors.ErrSessionNotFound, "migration retry requested before any run")
	}

	return srv.execute(ctx, identity, srv.progressReporter(onProgress))
}

// Status reports the current orchestrator snapshot.
func (srv *migrationService) Status() *usecase.MigrationStatus {
	srv.stateMu.Lock()
	defer srv.stateMu.Unlock()

	snapshot := srv.status

	return &snapshot
}

func (srv *migrationService) run(ctx context.Context, identity *entity.Account, onProgress usecase.ProgressFunc) error {
	report := srv.progressReporter(onProgress)

	needed, err := srv.migrationNeeded(ctx)
	if err != nil {
		srv.finishFailed(ctx, identity, "gate", err)

		return err
	}
	if !needed {
		srv.log(ctx).Info("Migration not needed, skipping")
		srv.setStatus(usecase.MigrationSkipped, 0, "")

		return nil
	}

	return srv.execute(ctx, identity, report)
}

// execute runs the three-stage pipeline from stage 1, unconditionally.
func (srv *migrationService) execute(ctx context.Context, identity *entity.Account, report usecase.ProgressFunc) error {
	srv.setStatus(usecase.MigrationRunning, 0, "")
	srv.log(ctx).Info("Starting legacy data migration", slog.String("username", identity.Username))

	imageCount, err := srv.migrateImages(ctx, report)
	if err != nil {
		stageErr := domainerrors.NewMigrationStageError(stageImages, err)
		srv.finishFailed(ctx, identity, stageImages, err)

		return stageErr
	}

	contentCount, err := srv.migrateContents(ctx, identity, report)
	if err != nil {
		stageErr := domainerrors.NewMigrationStageError(stageContents, err)
		srv.finishFailed(ctx, identity, stageContents, err)

		return stageErr
	}

	if err := srv.migrateSettings(ctx, identity, report); err != nil {
		stageErr := domainerrors.NewMigrationStageError(stageSettings, err)
		srv.finishFailed(ctx, identity, stageSettings, err)

		return stageErr
	}

	srv.writeCompletionMarker(ctx, identity)
	srv.setStatus(usecase.MigrationCompleted, progressSettingsDone, "")
	srv.publishEvent(ctx, &service.MigrationEvent{
		Type:         service.EventMigrationCompleted,
		UserID:       identity.Username,
		ImageCount:   imageCount,
		ContentCount: contentCount,
		OccurredAt:   srv.now(),
	})
	srv.log(ctx).Info("Migration completed",
		slog.Int("images", imageCount),
		slog.Int("contents", contentCount),
	)

	return nil
}

// migrationNeeded implements the two gates: remote non-emptiness first
// (prior completion is inferred, no flag document required), then the
// presence of any legacy marker. The remote probe runs before any legacy
// read so an already-migrated deployment touches the legacy sources not
// at all.
func (srv *migrationService) migrationNeeded(ctx context.Context) (bool, error) {
	for _, collection := range []string{repository.CollectionImages, repository.CollectionContents} {
		nonEmpty, err := srv.remote.ProbeNonEmpty(ctx, collection)
		if err != nil {
			return false, errors.Wrapf(err, "failed to probe remote collection %s", collection)
		}
		if nonEmpty {
			return false, nil
		}
	}

	if _, ok, err := srv.legacy.Get(ctx, repository.LegacyKeyContents); err != nil {
		return false, errors.Wrap(err, "failed to read legacy content marker")
	} else if ok {
		return true, nil
	}

	keys, err := srv.images.Keys(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to enumerate legacy images")
	}
	if len(keys) > 0 {
		return true, nil
	}

	for _, key := range repository.LegacySettingsKeys {
		if _, ok, err := srv.legacy.Get(ctx, key); err != nil {
			return false, errors.Wrapf(err, "failed to read legacy key %s", key)
		} else if ok {
			return true, nil
		}
	}

	// Fresh install: nothing to migrate.
	return false, nil
}

// migrateImages copies every legacy image into the remote store: the raw
// payload into the blob bucket, the metadata (with the base64 payload)
// into one atomic document batch keyed by the legacy id.
func (srv *migrationService) migrateImages(ctx context.Context, report usecase.ProgressFunc) (int, error) {
	report(progressImagesStart)

	keys, err := srv.images.Keys(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to enumerate legacy images")
	}

	docs := make(map[string]map[string]any, len(keys))
	now := srv.now()
	for _, key := range keys {
		blob, err := srv.images.Get(ctx, key)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to read legacy image %s", key)
		}

		contentType := classifyImageKey(key)
		if err := srv.blobs.Upload(ctx, repository.CollectionImages+"/"+key, blob, contentType); err != nil {
			return 0, errors.Wrapf(err, "failed to upload image blob %s", key)
		}

		docs[key] = map[string]any{
			"id":          key,
			"imageData":   base64.StdEncoding.EncodeToString(blob),
			"contentType": contentType,
			"createdAt":   now,
			"updatedAt":   now,
		}
	}

	if len(docs) > 0 {
		if err := srv.remote.BatchPut(ctx, repository.CollectionImages, docs); err != nil {
			return 0, errors.Wrap(err, "failed to write image documents")
		}
	}

	report(progressImagesDone)
	srv.setStatus(usecase.MigrationRunning, progressImagesDone, "")

	return len(docs), nil
}

// migrateContents copies the legacy content list verbatim, one document
// per element, preserving each element's own id. An absent list is a
// no-op, not an error.
func (srv *migrationService) migrateContents(ctx context.Context, identity *entity.Account, report usecase.ProgressFunc) (int, error) {
	raw, ok, err := srv.legacy.Get(ctx, repository.LegacyKeyContents)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read legacy content list")
	}
	if !ok {
		report(progressContentsDone)
		srv.setStatus(usecase.MigrationRunning, progressContentsDone, "")

		return 0, nil
	}

	var contents []entity.LegacyContent
	if err := json.Unmarshal([]byte(raw), &contents); err != nil {
		return 0, errors.Wrap(err, "failed to decode legacy content list")
	}

	docs := make(map[string]map[string]any, len(contents))
	now := srv.now()
	for _, content := range contents {
		docs[content.ID] = map[string]any{
			"id":          content.ID,
			"title":       content.Title,
			"description": content.Description,
			"type":        content.Type,
			"imageId":     content.ImageID,
			"position":    content.Position,
			"scale":       content.Scale,
			"userId":      identity.Username,
			"createdAt":   now,
			"updatedAt":   now,
		}
	}

	if len(docs) > 0 {
		if err := srv.remote.BatchPut(ctx, repository.CollectionContents, docs); err != nil {
			return 0, errors.Wrap(err, "failed to write content documents")
		}
	}

	report(progressContentsDone)
	srv.setStatus(usecase.MigrationRunning, progressContentsDone, "")

	return len(docs), nil
}

// migrateSettings collects the closed list of legacy settings keys into
// one document keyed by the identity's username. Values that fail JSON
// decoding are carried as raw strings.
func (srv *migrationService) migrateSettings(ctx context.Context, identity *entity.Account, report usecase.ProgressFunc) error {
	settings := make(map[string]any)
	for _, key := range repository.LegacySettingsKeys {
		raw, ok, err := srv.legacy.Get(ctx, key)
		if err != nil {
			return errors.Wrapf(err, "failed to read legacy key %s", key)
		}
		if !ok {
			continue
		}

		settings[key] = entity.ParseSetting(raw).Value()
	}

	now := srv.now()
	doc := map[string]any{
		"userId":    identity.Username,
		"settings":  settings,
		"createdAt": now,
		"updatedAt": now,
	}

	if err := srv.remote.PutOne(ctx, repository.CollectionUserSettings, identity.Username, doc); err != nil {
		return errors.Wrap(err, "failed to write settings document")
	}

	report(progressSettingsDone)
	srv.setStatus(usecase.MigrationRunning, progressSettingsDone, "")

	return nil
}

// writeCompletionMarker records the optional fast-path marker document.
// The emptiness probe stays authoritative, so a failure here only logs.
func (srv *migrationService) writeCompletionMarker(ctx context.Context, identity *entity.Account) {
	doc := map[string]any{
		"completedAt": srv.now(),
		"userId":      identity.Username,
	}
	if err := srv.remote.PutOne(ctx, repository.CollectionMeta, "completed", doc); err != nil {
		srv.log(ctx).Warn("Failed to write migration completion marker", slog.Any("error", err))
	}
}

func (srv *migrationService) finishFailed(ctx context.Context, identity *entity.Account, stage string, cause error) {
	srv.log(ctx).Error("Migration failed",
		slog.String("stage", stage),
		slog.Any("error", cause),
	)
	srv.setStatus(usecase.MigrationFailed, srv.Status().Progress, cause.Error())
	srv.publishEvent(ctx, &service.MigrationEvent{
		Type:       service.EventMigrationFailed,
		UserID:     identity.Username,
		Stage:      stage,
		Error:      cause.Error(),
		OccurredAt: srv.now(),
	})
}

func (srv *migrationService) publishEvent(ctx context.Context, event *service.MigrationEvent) {
	if srv.events == nil {
		return
	}
	if err := srv.events.PublishMigrationEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish migration event", slog.Any("error", err))
	}
}

func (srv *migrationService) setStatus(phase string, progress int, errMsg string) {
	srv.stateMu.Lock()
	defer srv.stateMu.Unlock()

	srv.status.Phase = phase
	srv.status.Progress = progress
	srv.status.Error = errMsg
	if phase == usecase.MigrationCompleted || phase == usecase.MigrationFailed {
		finished := srv.now()
		srv.status.FinishedAt = &finished
	} else {
		srv.status.FinishedAt = nil
	}
}

func (srv *migrationService) progressReporter(onProgress usecase.ProgressFunc) usecase.ProgressFunc {
	if onProgress == nil {
		return func(int) {}
	}

	return onProgress
}

// classifyImageKey derives the stored content type from the legacy key
// naming convention: banner assets were exported as PNG, captured images
// as JPEG.
func classifyImageKey(key string) string {
	if strings.HasPrefix(key, "banner_") {
		return "image/png"
	}

	return "image/jpeg"
}
