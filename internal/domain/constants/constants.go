// Package constants defines domain-wide constant values.
package constants

// Pub/Sub provider types
const (
	// PubSubProviderLocal uses a local HTTP endpoint that mimics the
	// push message format, for development.
	PubSubProviderLocal = "local"

	// PubSubProviderGoogle uses Google Cloud Pub/Sub.
	PubSubProviderGoogle = "google"
)
