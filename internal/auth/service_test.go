package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramline/service/internal/config"
	"github.com/gramline/service/internal/credential"
	"github.com/gramline/service/internal/instagram"
)

type memRepo struct {
	cred credential.Credential
}

func (r *memRepo) Load(ctx context.Context) (credential.Credential, error) { return r.cred, nil }
func (r *memRepo) Save(ctx context.Context, c credential.Credential) error {
	r.cred = c
	return nil
}
func (r *memRepo) Clear(ctx context.Context) error {
	r.cred = credential.Credential{}
	return nil
}

type fakeProvider struct {
	exchangeToken   string
	exchangeAccount string
	exchangeErr     error
	longLivedToken  string
	longLivedErr    error
	profile         *instagram.UserProfile
	profileErr      error

	exchangeCalls int
	upgradeCalls  int
	profileCalls  int
}

func (f *fakeProvider) AuthorizationURL() string { return "https://provider.test/authorize" }

func (f *fakeProvider) ExchangeCode(ctx context.Context, code string) (string, string, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return "", "", f.exchangeErr
	}
	return f.exchangeToken, f.exchangeAccount, nil
}

func (f *fakeProvider) ExchangeLongLived(ctx context.Context, shortLived string) (string, error) {
	f.upgradeCalls++
	if f.longLivedErr != nil {
		return "", f.longLivedErr
	}
	return f.longLivedToken, nil
}

func (f *fakeProvider) FetchProfile(ctx context.Context, accessToken string) (*instagram.UserProfile, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

type recordingEvents struct {
	upgradeFailures int
	profileFailures int
	cancellations   int
}

func (e *recordingEvents) TokenUpgradeFailed(err error) { e.upgradeFailures++ }
func (e *recordingEvents) ProfileFetchFailed(err error) { e.profileFailures++ }
func (e *recordingEvents) LoginCancelled()              { e.cancellations++ }

func newTestService(t *testing.T, provider *fakeProvider, events Events) (*Service, *credential.Store) {
	t.Helper()
	store, err := credential.NewStore(context.Background(), &memRepo{})
	require.NoError(t, err)
	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewService(provider, store, cfg, events), store
}

func TestCompleteCallbackUpgradesToLongLivedToken(t *testing.T) {
	provider := &fakeProvider{
		exchangeToken:   "short",
		exchangeAccount: "42",
		longLivedToken:  "long",
		profile:         &instagram.UserProfile{ID: "42", Username: "sam"},
	}
	svc, store := newTestService(t, provider, nil)

	token, err := svc.CompleteCallback(context.Background(), CallbackResult{Kind: CallbackCode, Code: "c"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cred := store.Get()
	assert.Equal(t, "long", cred.AccessToken)
	assert.Equal(t, "42", cred.AccountID)
	require.NotNil(t, svc.Profile())
	assert.Equal(t, "sam", svc.Profile().Username)

	// session token carries the account claims
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, "sam", claims["username"])
}

func TestCompleteCallbackKeepsShortLivedTokenWhenUpgradeFails(t *testing.T) {
	provider := &fakeProvider{
		exchangeToken:   "short",
		exchangeAccount: "42",
		longLivedErr:    errors.New("timeout"),
		profile:         &instagram.UserProfile{ID: "42", Username: "sam"},
	}
	events := &recordingEvents{}
	svc, store := newTestService(t, provider, events)

	token, err := svc.CompleteCallback(context.Background(), CallbackResult{Kind: CallbackCode, Code: "c"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	cred := store.Get()
	assert.Equal(t, "short", cred.AccessToken)
	assert.Equal(t, "42", cred.AccountID)
	assert.Equal(t, 1, events.upgradeFailures)
}

func TestCompleteCallbackProviderErrorLeavesStoreUntouched(t *testing.T) {
	provider := &fakeProvider{}
	svc, store := newTestService(t, provider, nil)

	_, err := svc.CompleteCallback(context.Background(), CallbackResult{Kind: CallbackError, Reason: "access_denied"})
	assert.ErrorIs(t, err, ErrExchangeFailed)

	assert.False(t, store.Get().IsAuthenticated())
	assert.Zero(t, provider.exchangeCalls)
}

func TestCompleteCallbackExchangeFailureLeavesStoreUntouched(t *testing.T) {
	provider := &fakeProvider{exchangeErr: errors.New("connection refused")}
	svc, store := newTestService(t, provider, nil)

	_, err := svc.CompleteCallback(context.Background(), CallbackResult{Kind: CallbackCode, Code: "c"})
	assert.ErrorIs(t, err, ErrExchangeFailed)

	assert.False(t, store.Get().IsAuthenticated())
	assert.Zero(t, provider.upgradeCalls)
}

func TestCompleteCallbackCancelledIsNoop(t *testing.T) {
	provider := &fakeProvider{}
	events := &recordingEvents{}
	svc, store := newTestService(t, provider, events)

	token, err := svc.CompleteCallback(context.Background(), Cancelled())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, 1, events.cancellations)
	assert.False(t, store.Get().IsAuthenticated())
	assert.Zero(t, provider.exchangeCalls)
}

func TestProfileFetchFailureDoesNotFailLogin(t *testing.T) {
	provider := &fakeProvider{
		exchangeToken:   "short",
		exchangeAccount: "42",
		longLivedToken:  "long",
		profileErr:      errors.New("rate limited"),
	}
	events := &recordingEvents{}
	svc, store := newTestService(t, provider, events)

	token, err := svc.CompleteCallback(context.Background(), CallbackResult{Kind: CallbackCode, Code: "c"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.True(t, store.Get().IsAuthenticated())
	assert.Nil(t, svc.Profile())
	assert.Equal(t, 1, events.profileFailures)
}

func TestFetchProfileIsNoopWhenUnauthenticated(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newTestService(t, provider, nil)

	p, err := svc.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Zero(t, provider.profileCalls)
}

func TestFetchProfileFailureKeepsCachedSnapshot(t *testing.T) {
	provider := &fakeProvider{
		exchangeToken:   "short",
		exchangeAccount: "42",
		longLivedToken:  "long",
		profile:         &instagram.UserProfile{ID: "42", Username: "sam"},
	}
	svc, _ := newTestService(t, provider, nil)

	_, err := svc.CompleteCallback(context.Background(), CallbackResult{Kind: CallbackCode, Code: "c"})
	require.NoError(t, err)
	require.NotNil(t, svc.Profile())

	provider.profileErr = errors.New("boom")
	_, err = svc.FetchProfile(context.Background())
	require.Error(t, err)
	require.NotNil(t, svc.Profile())
	assert.Equal(t, "sam", svc.Profile().Username)
}

func TestLogoutIsIdempotent(t *testing.T) {
	provider := &fakeProvider{
		exchangeToken:   "short",
		exchangeAccount: "42",
		longLivedToken:  "long",
		profile:         &instagram.UserProfile{ID: "42", Username: "sam"},
	}
	svc, store := newTestService(t, provider, nil)

	_, err := svc.CompleteCallback(context.Background(), CallbackResult{Kind: CallbackCode, Code: "c"})
	require.NoError(t, err)
	require.True(t, store.Get().IsAuthenticated())

	require.NoError(t, svc.Logout(context.Background()))
	require.NoError(t, svc.Logout(context.Background()))

	assert.False(t, store.Get().IsAuthenticated())
	assert.Nil(t, svc.Profile())
}
