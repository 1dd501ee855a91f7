// Package instagram is the HTTP client for the Instagram identity provider
// and Graph API: authorization-code exchange, long-lived token upgrade,
// profile lookup, and the two-stage media container/publish endpoints.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

const (
	defaultOAuthBaseURL = "https://api.instagram.com"
	defaultGraphBaseURL = "https://graph.instagram.com"

	// maxBodyBytes caps how much of a provider response body is read.
	maxBodyBytes = 1 << 20
)

// ErrMalformedResponse is returned when the provider answers 2xx but the
// body lacks the fields the call depends on.
var ErrMalformedResponse = errors.New("malformed provider response")

// UserProfile is the account snapshot returned by the profile endpoint.
type UserProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccountType string `json:"account_type,omitempty"`
	MediaCount  int    `json:"media_count,omitempty"`
}

// Client talks to the Instagram OAuth and Graph endpoints.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string

	oauthBaseURL string
	graphBaseURL string

	http *http.Client
}

// NewClient creates a provider client with the production endpoints.
func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		oauthBaseURL: defaultOAuthBaseURL,
		graphBaseURL: defaultGraphBaseURL,
		http:         &http.Client{},
	}
}

// WithBaseURLs overrides the provider endpoints. Used by tests to point the
// client at local stub servers.
func (c *Client) WithBaseURLs(oauthBaseURL, graphBaseURL string) *Client {
	c.oauthBaseURL = strings.TrimRight(oauthBaseURL, "/")
	c.graphBaseURL = strings.TrimRight(graphBaseURL, "/")
	return c
}

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  c.redirectURL,
		Scopes:       []string{"user_profile", "user_media"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.oauthBaseURL + "/oauth/authorize",
			TokenURL:  c.oauthBaseURL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL returns the provider authorization endpoint URL for the
// configured client. Pure function of configuration.
func (c *Client) AuthorizationURL() string {
	return c.oauthConfig().AuthCodeURL("")
}

// ExchangeCode trades a single-use authorization code for a short-lived
// access token and the numeric account ID it belongs to (stringified).
func (c *Client) ExchangeCode(ctx context.Context, code string) (accessToken, accountID string, err error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := c.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("exchange authorization code: %w", err)
	}
	id, ok := tokenAccountID(tok)
	if !ok {
		return "", "", fmt.Errorf("%w: token response missing user_id", ErrMalformedResponse)
	}
	return tok.AccessToken, id, nil
}

// tokenAccountID extracts user_id from the token response. The provider
// sends it as a JSON number.
func tokenAccountID(tok *oauth2.Token) (string, bool) {
	switch v := tok.Extra("user_id").(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10), true
	case json.Number:
		return v.String(), true
	case string:
		if v != "" {
			return v, true
		}
	}
	return "", false
}

type longLivedResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExchangeLongLived upgrades a short-lived token to a long-lived one.
func (c *Client) ExchangeLongLived(ctx context.Context, shortLived string) (string, error) {
	q := url.Values{
		"grant_type":    {"ig_exchange_token"},
		"client_secret": {c.clientSecret},
		"access_token":  {shortLived},
	}
	body, err := c.call(ctx, http.MethodGet, c.graphBaseURL+"/access_token?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("upgrade token: %w", err)
	}

	var res longLivedResponse
	if err := json.Unmarshal(body, &res); err != nil || res.AccessToken == "" {
		return "", fmt.Errorf("%w: upgrade response missing access_token", ErrMalformedResponse)
	}
	return res.AccessToken, nil
}

// FetchProfile returns the profile of the account owning the token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*UserProfile, error) {
	q := url.Values{
		"fields":       {"id,username,account_type,media_count"},
		"access_token": {accessToken},
	}
	body, err := c.call(ctx, http.MethodGet, c.graphBaseURL+"/me?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	var p UserProfile
	if err := json.Unmarshal(body, &p); err != nil || p.ID == "" || p.Username == "" {
		return nil, fmt.Errorf("%w: profile response missing id or username", ErrMalformedResponse)
	}
	return &p, nil
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateContainer stages an image, fetched by the provider from imageURL,
// as a media container on the account. Returns the container ID.
func (c *Client) CreateContainer(ctx context.Context, accountID, accessToken, imageURL string) (string, error) {
	q := url.Values{
		"image_url":    {imageURL},
		"access_token": {accessToken},
	}
	endpoint := fmt.Sprintf("%s/%s/media?%s", c.graphBaseURL, accountID, q.Encode())
	body, err := c.call(ctx, http.MethodPost, endpoint)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	var res idResponse
	if err := json.Unmarshal(body, &res); err != nil || res.ID == "" {
		return "", fmt.Errorf("%w: container response missing id", ErrMalformedResponse)
	}
	return res.ID, nil
}

// PublishContainer turns a previously created container into a permanent
// published post. Returns the published media ID.
func (c *Client) PublishContainer(ctx context.Context, accountID, accessToken, containerID string) (string, error) {
	q := url.Values{
		"creation_id":  {containerID},
		"access_token": {accessToken},
	}
	endpoint := fmt.Sprintf("%s/%s/media_publish?%s", c.graphBaseURL, accountID, q.Encode())
	body, err := c.call(ctx, http.MethodPost, endpoint)
	if err != nil {
		return "", fmt.Errorf("publish container: %w", err)
	}

	var res idResponse
	if err := json.Unmarshal(body, &res); err != nil || res.ID == "" {
		return "", fmt.Errorf("%w: publish response missing id", ErrMalformedResponse)
	}
	return res.ID, nil
}

// call issues a request with no body and returns the response body, or an
// error carrying the provider's message on a non-2xx status.
func (c *Client) call(ctx context.Context, method, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned %s: %s", resp.Status, apiErrorMessage(body))
	}
	return body, nil
}

// apiErrorMessage pulls a human-readable message out of a Graph API error
// body, falling back to the raw body.
func apiErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.ErrorMessage != "" {
			return envelope.ErrorMessage
		}
	}
	return strings.TrimSpace(string(body))
}
