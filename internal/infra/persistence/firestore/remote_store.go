// Package firestore backs the remote document store with Cloud
// Firestore through the Firebase Admin SDK.
package firestore

import (
	"context"

	"curator/config"
	"curator/internal/domain/repository"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type remoteStore struct {
	client *firestore.Client
}

// NewRemoteStore initializes the Firebase app for the configured
// project and opens its Firestore client. When a credentials file is
// configured it is used explicitly; otherwise the SDK falls back to
// application default credentials.
func NewRemoteStore(ctx context.Context, cfg *config.Config) (repository.RemoteStore, error) {
	var opts []option.ClientOption
	if cfg.Firebase.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get Firestore client")
	}

	return &remoteStore{client: client}, nil
}

// ProbeNonEmpty reports whether the collection holds at least one
// document, reading at most one.
func (s *remoteStore) ProbeNonEmpty(ctx context.Context, collection string) (bool, error) {
	iter := s.client.Collection(collection).Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to probe collection %s", collection)
	}

	return true, nil
}

// BatchPut writes every document in one bulk operation. Document IDs
// are the map keys.
func (s *remoteStore) BatchPut(ctx context.Context, collection string, docs map[string]map[string]any) error {
	if len(docs) == 0 {
		return nil
	}

	writer := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for id, fields := range docs {
		job, err := writer.Set(s.client.Collection(collection).Doc(id), fields)
		if err != nil {
			return errors.Wrapf(err, "failed to enqueue document %s", id)
		}
		jobs = append(jobs, job)
	}
	writer.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errors.Wrapf(err, "failed to write collection %s", collection)
		}
	}

	return nil
}

// PutOne writes a single document, replacing any existing one.
func (s *remoteStore) PutOne(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, fields); err != nil {
		return errors.Wrapf(err, "failed to write document %s/%s", collection, id)
	}

	return nil
}

// Close releases the underlying Firestore client.
func (s *remoteStore) Close() error {
	return s.client.Close()
}
