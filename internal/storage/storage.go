// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO,
// AWS S3).
package storage

import (
	"context"
	"time"
)

// ObjectStore is the interface for storing and retrieving objects.
type ObjectStore interface {
	// Put stores data under key with the given content type and user
	// metadata, requesting server-side encryption at rest. Returns the
	// store's checksum (ETag) for the object.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (etag string, err error)
	// PresignedGetURL returns a time-bounded URL granting read access to key.
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete removes the object identified by key.
	Delete(ctx context.Context, key string) error
	// List returns up to limit keys under prefix.
	List(ctx context.Context, prefix string, limit int) ([]string, error)
}
