// Package auth drives the Instagram OAuth login flow end to end: building
// the authorization URL, consuming the redirect callback, exchanging the
// code, upgrading to a long-lived token, and caching the account profile.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gramline/service/internal/config"
	"github.com/gramline/service/internal/credential"
	"github.com/gramline/service/internal/instagram"
)

// ErrExchangeFailed is returned when the authorization-code exchange fails
// or the provider reported an error on the callback.
var ErrExchangeFailed = errors.New("authorization code exchange failed")

const sessionTTL = 30 * 24 * time.Hour

// ProviderClient is the slice of the Instagram client the login flow needs.
type ProviderClient interface {
	AuthorizationURL() string
	ExchangeCode(ctx context.Context, code string) (accessToken, accountID string, err error)
	ExchangeLongLived(ctx context.Context, shortLived string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*instagram.UserProfile, error)
}

// Service contains the login flow business logic.
type Service struct {
	client ProviderClient
	creds  *credential.Store
	cfg    *config.Config
	events Events

	mu      sync.Mutex
	profile *instagram.UserProfile
}

// NewService creates a new auth Service. A nil events sink falls back to
// the standard logger.
func NewService(client ProviderClient, creds *credential.Store, cfg *config.Config, events Events) *Service {
	if events == nil {
		events = DefaultEvents
	}
	return &Service{client: client, creds: creds, cfg: cfg, events: events}
}

// AuthorizationURL returns the provider consent URL the user is sent to.
func (s *Service) AuthorizationURL() string {
	return s.client.AuthorizationURL()
}

// IsAuthenticated reports whether a credential is currently committed.
func (s *Service) IsAuthenticated() bool {
	return s.creds.Get().IsAuthenticated()
}

// CompleteCallback consumes the outcome of the interactive authentication
// step. On a successful code it runs the full exchange and returns a signed
// session token for the local API. Cancellation is a logged no-op returning
// an empty token. A provider-reported error is terminal for this attempt
// and leaves the credential store untouched.
func (s *Service) CompleteCallback(ctx context.Context, res CallbackResult) (string, error) {
	switch res.Kind {
	case CallbackCancelled:
		s.events.LoginCancelled()
		return "", nil
	case CallbackError:
		return "", fmt.Errorf("%w: provider error: %s", ErrExchangeFailed, res.Reason)
	}
	return s.completeLogin(ctx, res.Code)
}

func (s *Service) completeLogin(ctx context.Context, code string) (string, error) {
	token, accountID, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	// Commit the short-lived token before attempting the upgrade: a failed
	// upgrade must not lose a usable token.
	if err := s.creds.Set(ctx, credential.Credential{AccessToken: token, AccountID: accountID}); err != nil {
		return "", err
	}

	if longLived, err := s.client.ExchangeLongLived(ctx, token); err != nil {
		s.events.TokenUpgradeFailed(err)
	} else if err := s.creds.Set(ctx, credential.Credential{AccessToken: longLived, AccountID: accountID}); err != nil {
		s.events.TokenUpgradeFailed(err)
	}

	if _, err := s.FetchProfile(ctx); err != nil {
		s.events.ProfileFetchFailed(err)
	}

	username := ""
	if p := s.Profile(); p != nil {
		username = p.Username
	}
	return s.issueSession(accountID, username)
}

// FetchProfile refreshes the cached profile snapshot, replacing it
// wholesale. Without an access token it is a no-op, not an error: profile
// data is best-effort and can be fetched again later. On failure the
// previously cached profile is left untouched.
func (s *Service) FetchProfile(ctx context.Context) (*instagram.UserProfile, error) {
	cred := s.creds.Get()
	if !cred.IsAuthenticated() {
		return nil, nil
	}

	p, err := s.client.FetchProfile(ctx, cred.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	return p, nil
}

// Profile returns the cached profile snapshot, or nil when none has been
// fetched since the last login.
func (s *Service) Profile() *instagram.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Logout clears the committed credential and the cached profile. Idempotent.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.creds.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
	return nil
}

// issueSession creates a signed JWT identifying the logged-in account to
// the local API.
func (s *Service) issueSession(accountID, username string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      accountID,
		"username": username,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(sessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
