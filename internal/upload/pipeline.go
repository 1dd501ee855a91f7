// Package upload archives image batches to the object store, independently
// of the publish pipeline. Uploads run strictly in submission order so the
// published progress value only ever moves forward within a batch. The
// first failing item aborts the batch: without a retry policy there is no
// good answer for a partially archived batch, so none is exposed.
package upload

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/atomic"

	"github.com/gramline/service/internal/config"
	"github.com/gramline/service/internal/media"
	"github.com/gramline/service/internal/storage"
)

// ErrMissingConfiguration is returned when the bucket or store credentials
// are not configured.
var ErrMissingConfiguration = errors.New("object storage is not configured")

// sourceTag marks every archived object's provenance in its metadata.
const sourceTag = "gramline"

// Descriptor describes one successfully archived object.
type Descriptor struct {
	Key        string    `json:"key"`
	Bucket     string    `json:"bucket"`
	Checksum   string    `json:"checksum"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Service runs archive batches against the object store.
type Service struct {
	store      storage.ObjectStore
	bucket     string
	prefix     string
	configured bool
	progress   atomic.Float64

	now func() time.Time
}

// NewService creates a new upload Service. The store may be nil when
// storage is unconfigured; every call then fails with
// ErrMissingConfiguration.
func NewService(store storage.ObjectStore, cfg *config.Config) *Service {
	configured := store != nil &&
		cfg.StorageBucket != "" &&
		cfg.StorageAccessKey != "" &&
		cfg.StorageSecretKey != ""
	return &Service{
		store:      store,
		bucket:     cfg.StorageBucket,
		prefix:     cfg.StoragePrefix,
		configured: configured,
		now:        time.Now,
	}
}

// Progress reports the fraction of the current batch that has completed,
// in [0, 1]. Safe to poll while a batch is running.
func (s *Service) Progress() float64 {
	return s.progress.Load()
}

// UploadBatch archives an ordered batch of images. On full success it
// returns one descriptor per item, index-aligned with the input. The first
// failure aborts the batch.
func (s *Service) UploadBatch(ctx context.Context, items []media.Item) ([]Descriptor, error) {
	if !s.configured {
		return nil, ErrMissingConfiguration
	}

	s.progress.Store(0)
	stamp := s.now().UTC()
	total := len(items)

	descriptors := make([]Descriptor, 0, total)
	for done, item := range items {
		key := s.objectKey(stamp, item)
		metadata := map[string]string{
			"source":      sourceTag,
			"uploaded-at": stamp.Format(time.RFC3339),
			"index":       strconv.Itoa(item.Index),
		}

		etag, err := s.store.Put(ctx, key, item.Data, item.ContentType, metadata)
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", key, err)
		}

		descriptors = append(descriptors, Descriptor{
			Key:        key,
			Bucket:     s.bucket,
			Checksum:   etag,
			SizeBytes:  int64(len(item.Data)),
			UploadedAt: stamp,
		})
		s.progress.Store(float64(done+1) / float64(total))
	}
	return descriptors, nil
}

// objectKey derives a batch-unique key: the ordinal suffix keeps two items
// of one batch apart even within the same second.
func (s *Service) objectKey(stamp time.Time, item media.Item) string {
	return fmt.Sprintf("%s/%s-%02d%s", s.prefix, stamp.Format("20060102-150405"), item.Index, item.Ext())
}

// PresignedURL returns a time-bounded retrieval URL for a stored key.
func (s *Service) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if !s.configured {
		return "", ErrMissingConfiguration
	}
	u, err := s.store.PresignedGetURL(ctx, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return u, nil
}

// Delete removes a stored object by key.
func (s *Service) Delete(ctx context.Context, key string) error {
	if !s.configured {
		return ErrMissingConfiguration
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// List returns up to limit archived keys under the configured prefix.
func (s *Service) List(ctx context.Context, limit int) ([]string, error) {
	if !s.configured {
		return nil, ErrMissingConfiguration
	}
	keys, err := s.store.List(ctx, s.prefix+"/", limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return keys, nil
}
