package usecase

import (
	"context"
	"time"

	"curator/internal/domain/entity"
)

// Migration phases exposed to the UI layer.
const (
	MigrationIdle      = "idle"
	MigrationRunning   = "running"
	MigrationCompleted = "completed"
	MigrationSkipped   = "skipped"
	MigrationFailed    = "failed"
)

// ProgressFunc receives the monotonically increasing completion
// percentage (0-100) while migration runs.
type ProgressFunc func(percent int)

// MigrationStatus is a snapshot of the orchestrator state for the UI.
type MigrationStatus struct {
	Phase      string     `json:"phase"`
	Progress   int        `json:"progress"`
	Error      string     `json:"error,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// MigrationUsecase moves the legacy client-local data into the remote
// store once per deployment. Every write is a keyed overwrite, so a
// wholesale retry after a partial failure is safe.
type MigrationUsecase interface {
	// RunIfNeeded probes the remote store and the legacy markers, then
	// either no-ops or runs the three-stage pipeline. Returns a
	// MigrationStageError when a stage aborts.
	RunIfNeeded(ctx context.Context, identity *entity.Account, onProgress ProgressFunc) error

	// Retry re-runs the whole pipeline from stage 1 after a failure,
	// without re-applying the emptiness gate: every write is a keyed
	// overwrite, so repeating completed stages is safe, while a gate
	// check would mistake the partial remote data for a finished run.
	Retry(ctx context.Context, onProgress ProgressFunc) error

	// Status reports the current orchestrator snapshot.
	Status() *MigrationStatus
}
