package repository

import (
	"context"
)

// Remote collections written by migration and owned afterwards by the
// CRUD screens.
const (
	CollectionImages       = "images"
	CollectionContents     = "contents"
	CollectionUserSettings = "userSettings"
	CollectionMeta         = "migration_meta"
)

// RemoteStore is the batched put/get/delete boundary of the remote
// document store. Batches are assumed atomic at the collaborator side;
// this layer adds no cross-document transactions of its own.
type RemoteStore interface {
	// ProbeNonEmpty reports whether the collection holds at least one document.
	ProbeNonEmpty(ctx context.Context, collection string) (bool, error)

	// BatchPut writes every document in one atomic batch commit, keyed by id.
	// A put is an overwrite, so replays of the same batch are idempotent.
	BatchPut(ctx context.Context, collection string, docs map[string]map[string]any) error

	// PutOne writes a single document, overwriting any existing one.
	PutOne(ctx context.Context, collection string, id string, doc map[string]any) error
}

// RemoteBlobStore is the durable blob side of the remote store, holding
// the raw image payloads next to their metadata documents.
type RemoteBlobStore interface {
	// Upload writes a blob under the key, overwriting any existing object.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}
