package hosting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramline/service/internal/media"
)

type fakeStore struct {
	putKeys []string
	putErr  error
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return "etag", nil
}

func (f *fakeStore) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.test/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeStore) List(ctx context.Context, prefix string, limit int) ([]string, error) {
	return nil, nil
}

func TestSourceURLStagesAndPresigns(t *testing.T) {
	store := &fakeStore{}
	host := NewHost(store)

	item := media.Item{Index: 0, ContentType: "image/png", Data: []byte{0x89}}
	u, err := host.SourceURL(context.Background(), item)
	require.NoError(t, err)

	require.Len(t, store.putKeys, 1)
	key := store.putKeys[0]
	assert.True(t, strings.HasPrefix(key, "staging/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://signed.test/"+key, u)
}

func TestSourceURLKeysAreUnique(t *testing.T) {
	store := &fakeStore{}
	host := NewHost(store)

	item := media.Item{Index: 0, ContentType: "image/jpeg", Data: []byte{0xff}}
	_, err := host.SourceURL(context.Background(), item)
	require.NoError(t, err)
	_, err = host.SourceURL(context.Background(), item)
	require.NoError(t, err)

	require.Len(t, store.putKeys, 2)
	assert.NotEqual(t, store.putKeys[0], store.putKeys[1])
}

func TestSourceURLPutFailure(t *testing.T) {
	store := &fakeStore{putErr: errors.New("bucket gone")}
	host := NewHost(store)

	_, err := host.SourceURL(context.Background(), media.Item{Index: 3, ContentType: "image/jpeg", Data: []byte{0xff}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 3")
}
