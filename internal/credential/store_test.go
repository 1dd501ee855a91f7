package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	cred    Credential
	saveErr error
}

func (r *memRepo) Load(ctx context.Context) (Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cred, nil
}

func (r *memRepo) Save(ctx context.Context, c Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.cred = c
	return nil
}

func (r *memRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cred = Credential{}
	return nil
}

func TestStoreSetAndGet(t *testing.T) {
	repo := &memRepo{}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)

	assert.False(t, store.Get().IsAuthenticated())

	cred := Credential{AccessToken: "tok", AccountID: "42"}
	require.NoError(t, store.Set(context.Background(), cred))

	assert.Equal(t, cred, store.Get())
	assert.True(t, store.Get().IsAuthenticated())

	// write-through persisted
	persisted, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cred, persisted)
}

func TestStorePrimesFromRepository(t *testing.T) {
	repo := &memRepo{cred: Credential{AccessToken: "persisted", AccountID: "7"}}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)

	assert.Equal(t, "persisted", store.Get().AccessToken)
	assert.Equal(t, "7", store.Get().AccountID)
}

func TestStoreClearIsIdempotent(t *testing.T) {
	repo := &memRepo{}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), Credential{AccessToken: "tok", AccountID: "42"}))

	require.NoError(t, store.Clear(context.Background()))
	first := store.Get()

	require.NoError(t, store.Clear(context.Background()))
	assert.Equal(t, first, store.Get())
	assert.False(t, store.Get().IsAuthenticated())
}

func TestStoreSetFailureLeavesCacheUntouched(t *testing.T) {
	repo := &memRepo{}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), Credential{AccessToken: "old", AccountID: "1"}))

	repo.saveErr = errors.New("disk full")
	err = store.Set(context.Background(), Credential{AccessToken: "new", AccountID: "2"})
	require.Error(t, err)

	assert.Equal(t, "old", store.Get().AccessToken)
	assert.Equal(t, "1", store.Get().AccountID)
}

func TestStoreConcurrentReadersNeverSeeTornPair(t *testing.T) {
	repo := &memRepo{}
	store, err := NewStore(context.Background(), repo)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := Credential{
				AccessToken: fmt.Sprintf("tok-%d", i),
				AccountID:   fmt.Sprintf("acct-%d", i),
			}
			_ = store.Set(context.Background(), c)
		}(i)
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := store.Get()
			if c.AccessToken == "" {
				assert.Empty(t, c.AccountID)
				return
			}
			// token tok-N must always pair with account acct-N
			assert.Equal(t, "tok-"+c.AccountID[len("acct-"):], c.AccessToken)
		}()
	}
	wg.Wait()
}
