package service

import (
	"context"
	"time"
)

// Migration event types published for the admin dashboard.
const (
	EventMigrationCompleted = "migration.completed"
	EventMigrationFailed    = "migration.failed"
)

// MigrationEvent describes the outcome of one migration run.
type MigrationEvent struct {
	Type         string    `json:"type"`
	UserID       string    `json:"user_id"`
	Stage        string    `json:"stage,omitempty"` // failing stage, for migration.failed
	Error        string    `json:"error,omitempty"`
	ImageCount   int       `json:"image_count"`
	ContentCount int       `json:"content_count"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishMigrationEvent publishes a migration lifecycle event.
	PublishMigrationEvent(ctx context.Context, event *MigrationEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
