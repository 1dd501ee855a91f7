// Package publish runs the two-stage media publish pipeline: every image of
// a batch is staged as a provider-side container, then every container is
// published, in submission order. Both stages are fail-fast: the first
// failing item aborts the whole batch and nothing is returned to the
// caller. The provider endpoints are rate- and quota-limited per account,
// so a half-posted batch with no retry policy would be worse than a clean
// failure the caller can re-run.
package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/gramline/service/internal/credential"
	"github.com/gramline/service/internal/media"
)

var (
	// ErrNotAuthenticated is returned when no credential is committed.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrContainerCreate is returned when staging a container fails.
	ErrContainerCreate = errors.New("media container creation failed")
	// ErrPublish is returned when publishing a container fails.
	ErrPublish = errors.New("media publish failed")
)

// Provider is the slice of the Instagram client the pipeline needs.
type Provider interface {
	CreateContainer(ctx context.Context, accountID, accessToken, imageURL string) (string, error)
	PublishContainer(ctx context.Context, accountID, accessToken, containerID string) (string, error)
}

// SourceURLProvider turns an item's bytes into a URL the provider can
// fetch, since the container-create endpoint does not accept inline bytes.
type SourceURLProvider interface {
	SourceURL(ctx context.Context, item media.Item) (string, error)
}

// Service runs publish batches against the provider.
type Service struct {
	creds    *credential.Store
	provider Provider
	hosting  SourceURLProvider
}

// NewService creates a new publish Service.
func NewService(creds *credential.Store, provider Provider, hosting SourceURLProvider) *Service {
	return &Service{creds: creds, provider: provider, hosting: hosting}
}

// PublishBatch publishes an ordered batch of images. On full success it
// returns one published-media ID per item, index-aligned with the input.
// The first failure aborts the batch before any later item is attempted;
// the publish stage is only entered once every container exists.
func (s *Service) PublishBatch(ctx context.Context, items []media.Item) ([]string, error) {
	cred := s.creds.Get()
	if !cred.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if s.hosting == nil {
		return nil, fmt.Errorf("%w: no temporary hosting configured", ErrContainerCreate)
	}

	containers, err := s.createContainers(ctx, cred, items)
	if err != nil {
		return nil, err
	}
	return s.publishContainers(ctx, cred, containers)
}

func (s *Service) createContainers(ctx context.Context, cred credential.Credential, items []media.Item) ([]string, error) {
	containers := make([]string, 0, len(items))
	for _, item := range items {
		sourceURL, err := s.hosting.SourceURL(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrContainerCreate, item.Index, err)
		}

		id, err := s.provider.CreateContainer(ctx, cred.AccountID, cred.AccessToken, sourceURL)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrContainerCreate, item.Index, err)
		}
		containers = append(containers, id)
	}
	return containers, nil
}

func (s *Service) publishContainers(ctx context.Context, cred credential.Credential, containers []string) ([]string, error) {
	published := make([]string, 0, len(containers))
	for i, containerID := range containers {
		id, err := s.provider.PublishContainer(ctx, cred.AccountID, cred.AccessToken, containerID)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrPublish, i, err)
		}
		published = append(published, id)
	}
	return published, nil
}
