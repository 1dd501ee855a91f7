// Package credential holds the persisted Instagram credential for this
// installation: the current access token and the account it belongs to.
// The store is the single source of truth for "is there an authenticated
// session" — both fields are set together on login and cleared together
// on logout.
package credential

import (
	"context"
	"fmt"
	"sync"
)

// Credential is the token/account pair committed after a successful code
// exchange. Both fields empty means no authenticated session.
type Credential struct {
	AccessToken string
	AccountID   string
}

// IsAuthenticated reports whether the credential represents a live session.
func (c Credential) IsAuthenticated() bool {
	return c.AccessToken != "" && c.AccountID != ""
}

// Repository persists the credential across process restarts.
type Repository interface {
	// Load returns the stored credential, or a zero Credential when none
	// has been saved yet.
	Load(ctx context.Context) (Credential, error)
	// Save overwrites the stored credential.
	Save(ctx context.Context, c Credential) error
	// Clear removes the stored credential. Clearing an empty repository
	// is not an error.
	Clear(ctx context.Context) error
}

// Store is a mutex-guarded in-memory view of the credential with
// write-through persistence. Get never touches the repository; Set and
// Clear update the repository first and the cache only on success, so a
// persistence failure never leaves the cache ahead of durable state.
type Store struct {
	mu   sync.Mutex
	cur  Credential
	repo Repository
}

// NewStore creates a Store and primes the cache from the repository.
func NewStore(ctx context.Context, repo Repository) (*Store, error) {
	cur, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &Store{cur: cur, repo: repo}, nil
}

// Get returns the current credential. The returned value is a copy; a
// concurrent Set or Clear never exposes a half-updated token/account pair.
func (s *Store) Get() Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Set commits a new credential, replacing any previous one.
func (s *Store) Set(ctx context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Save(ctx, c); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.cur = c
	return nil
}

// Clear removes the credential. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.cur = Credential{}
	return nil
}
