// Package hosting stages image bytes somewhere the media provider can fetch
// them. The container-create endpoint accepts a source URL, not inline
// bytes, so each image is written to the object store under a staging key
// and handed to the provider as a short-lived presigned URL.
package hosting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramline/service/internal/media"
	"github.com/gramline/service/internal/storage"
)

const (
	stagingPrefix = "staging"
	stagingTTL    = 15 * time.Minute
)

// Host stages batch items in the object store and presigns them for the
// provider's fetch.
type Host struct {
	store storage.ObjectStore
}

// NewHost creates a staging host on top of the given object store.
func NewHost(store storage.ObjectStore) *Host {
	return &Host{store: store}
}

// SourceURL uploads the item under a unique staging key and returns a
// presigned GET URL the provider can fetch it from.
func (h *Host) SourceURL(ctx context.Context, item media.Item) (string, error) {
	key := fmt.Sprintf("%s/%s%s", stagingPrefix, uuid.NewString(), item.Ext())

	metadata := map[string]string{"purpose": "staging"}
	if _, err := h.store.Put(ctx, key, item.Data, item.ContentType, metadata); err != nil {
		return "", fmt.Errorf("stage item %d: %w", item.Index, err)
	}

	u, err := h.store.PresignedGetURL(ctx, key, stagingTTL)
	if err != nil {
		return "", fmt.Errorf("presign staged item %d: %w", item.Index, err)
	}
	return u, nil
}
