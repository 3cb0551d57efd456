package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nowbridge/nowbridge/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// accessTokenTTL is deliberately shorter than the upstream's observed
	// ~60-minute token lifetime, so the cache never serves a token past its
	// real expiry even under clock drift.
	accessTokenTTL = 50 * time.Minute

	refreshTimeout = 10 * time.Second

	defaultRefreshTries    = 3
	defaultRefreshInterval = time.Second
)

// AccessToken is a short-lived bearer credential for upstream calls. Values
// are immutable once returned: the manager replaces the cached token wholesale
// on refresh.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

func (t AccessToken) valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// TokenManager owns the access-token lifecycle: a single cached token,
// expiry tracking, and refresh with bounded retry. Concurrent callers that
// find the cache expired share one in-flight refresh.
type TokenManager struct {
	cfg        config.SpotifyConfig
	httpClient *http.Client

	mu      sync.RWMutex
	current AccessToken

	flight singleflight.Group

	now          func() time.Time
	retryTries   uint
	retryInitial time.Duration
}

type TokenManagerOption func(*TokenManager)

// WithHTTPClient sets the client used for refresh calls.
func WithHTTPClient(c *http.Client) TokenManagerOption {
	return func(m *TokenManager) {
		m.httpClient = c
	}
}

// WithClock overrides the time source. Testing use.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// WithRetryPolicy overrides the refresh retry bounds. Testing use.
func WithRetryPolicy(tries uint, initial time.Duration) TokenManagerOption {
	return func(m *TokenManager) {
		m.retryTries = tries
		m.retryInitial = initial
	}
}

func NewTokenManager(cfg config.SpotifyConfig, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		cfg:          cfg,
		httpClient:   http.DefaultClient,
		now:          time.Now,
		retryTries:   defaultRefreshTries,
		retryInitial: defaultRefreshInterval,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Token returns a valid access token, refreshing if the cached one is absent
// or expired. The cache-hit path takes a read lock only and performs no
// network calls.
func (m *TokenManager) Token(ctx context.Context) (AccessToken, error) {
	if !m.cfg.Configured() {
		return AccessToken{}, &AuthError{Reason: AuthMisconfigured}
	}

	if tok, ok := m.cached(); ok {
		return tok, nil
	}

	// Exactly one refresh per expiry event: concurrent callers wait on the
	// same in-flight operation and receive the same token.
	v, err, _ := m.flight.Do("refresh", func() (any, error) {
		// a racing caller may have completed the refresh between this
		// caller's cache check and joining the flight
		if tok, ok := m.cached(); ok {
			return tok, nil
		}

		tok, err := withBackoff(ctx,
			func() (AccessToken, error) { return m.refreshOnce(ctx) },
			m.retryTries, m.retryInitial, transientRefreshFailure)
		if err != nil {
			// the cache is left untouched: the next call starts a fresh
			// refresh rather than serving a poisoned token
			return AccessToken{}, err
		}

		m.mu.Lock()
		m.current = tok
		m.mu.Unlock()

		log.Ctx(ctx).Info().Time("expiry", tok.ExpiresAt).Msg("spotify access token refreshed")
		return tok, nil
	})
	if err != nil {
		return AccessToken{}, err
	}

	return v.(AccessToken), nil
}

func (m *TokenManager) cached() (AccessToken, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current.valid(m.now()) {
		return m.current, true
	}
	return AccessToken{}, false
}

// refreshOnce performs a single refresh attempt against the token endpoint.
func (m *TokenManager) refreshOnce(ctx context.Context) (AccessToken, error) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {m.cfg.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return AccessToken{}, &AuthError{Reason: AuthRefreshFailed, cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.cfg.ClientID, m.cfg.ClientSecret)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return AccessToken{}, &AuthError{Reason: AuthRefreshFailed, cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return AccessToken{}, &AuthError{Reason: AuthRefreshFailed, StatusCode: resp.StatusCode}
	}

	var body wireTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return AccessToken{}, &AuthError{Reason: AuthInvalidResponse, cause: err}
	}
	if body.AccessToken == "" {
		return AccessToken{}, &AuthError{Reason: AuthInvalidResponse}
	}

	return AccessToken{
		Value:     body.AccessToken,
		ExpiresAt: m.now().Add(accessTokenTTL),
	}, nil
}

// transientRefreshFailure classifies 502/503/504 refresh responses as worth
// retrying. Transport errors, parse failures, and every other status fail
// immediately.
func transientRefreshFailure(err error) bool {
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Reason != AuthRefreshFailed {
		return false
	}

	switch ae.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
