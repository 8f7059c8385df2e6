// Package storage backs the remote blob store with a gocloud.dev
// bucket, so the same code serves a gs:// bucket in production and a
// file:// bucket in development.
package storage

import (
	"context"
	"strings"

	"curator/config"
	"curator/internal/domain/repository"

	"github.com/pkg/errors"
	"gocloud.dev/blob"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
)

type blobStore struct {
	bucket *blob.Bucket
}

// NewBlobStore opens the bucket named by the storage configuration.
// Bare bucket names are treated as gs:// buckets; full URLs (gs://,
// file://) are passed through to the driver registry.
func NewBlobStore(ctx context.Context, cfg *config.Config) (repository.RemoteBlobStore, error) {
	url := cfg.Firebase.StorageBucket
	if !strings.Contains(url, "://") {
		url = "gs://" + url
	}

	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", url)
	}

	return &blobStore{bucket: bucket}, nil
}

// Upload writes the blob under key with the given content type,
// replacing any existing object.
func (s *blobStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return errors.Wrapf(err, "failed to upload blob %s", key)
	}

	return nil
}

// Close releases the bucket handle.
func (s *blobStore) Close() error {
	return s.bucket.Close()
}
