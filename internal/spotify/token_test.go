package spotify_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/nowbridge/nowbridge/internal/config"
	"github.com/nowbridge/nowbridge/internal/spotify"
	"github.com/nowbridge/nowbridge/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenConfig(tokenURL string) config.SpotifyConfig {
	return config.SpotifyConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-token",
		TokenURL:     tokenURL,
	}
}

func TestToken_RefreshesOnFirstCall(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)

	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL))

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-access-token", tok.Value)
	assert.Equal(t, 1, mock.RequestCount)
}

func TestToken_CacheHitPerformsNoNetworkCall(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)

	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL))

	first, err := m.Token(context.Background())
	require.NoError(t, err)

	second, err := m.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.RequestCount)
}

func TestToken_RefreshesAfterExpiry(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)

	now := time.Now()
	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL),
		spotify.WithClock(func() time.Time { return now }))

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, mock.RequestCount)

	// cached token lives 50 minutes; an hour later it must be refreshed
	now = now.Add(time.Hour)

	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, mock.RequestCount)
}

func TestToken_SingleFlight(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)

	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL))

	const callers = 8
	tokens := make([]spotify.AccessToken, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.Token(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}()
	}
	wg.Wait()

	// exactly one refresh HTTP call serves all concurrent callers
	assert.Equal(t, 1, mock.RequestCount)
	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok)
	}
}

func TestToken_RetriesTransientFailures(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)
	mock.Statuses = []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK}

	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL),
		spotify.WithRetryPolicy(3, 10*time.Millisecond))

	start := time.Now()
	tok, err := m.Token(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "test-access-token", tok.Value)
	assert.Equal(t, 3, mock.RequestCount)

	// two backoff waits: initial then doubled
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestToken_ExhaustedRetries(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)
	mock.Statuses = []int{http.StatusBadGateway}

	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL),
		spotify.WithRetryPolicy(3, time.Millisecond))

	_, err := m.Token(context.Background())

	var authErr *spotify.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, spotify.AuthRefreshFailed, authErr.Reason)
	assert.Equal(t, http.StatusBadGateway, authErr.StatusCode)
	assert.Equal(t, 3, mock.RequestCount)
}

func TestToken_NonRetryableFailureFailsImmediately(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)
	mock.Statuses = []int{http.StatusUnauthorized}

	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL),
		spotify.WithRetryPolicy(3, time.Second))

	start := time.Now()
	_, err := m.Token(context.Background())
	elapsed := time.Since(start)

	var authErr *spotify.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, spotify.AuthRefreshFailed, authErr.Reason)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)

	// no retry, no backoff delay
	assert.Equal(t, 1, mock.RequestCount)
	assert.Less(t, elapsed, time.Second)
}

func TestToken_InvalidResponseBody(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)
	mock.AccessToken = "" // 200 with no usable access_token field

	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL))

	_, err := m.Token(context.Background())

	var authErr *spotify.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, spotify.AuthInvalidResponse, authErr.Reason)
}

func TestToken_FailureDoesNotPoisonCache(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)
	mock.Statuses = []int{http.StatusUnauthorized, http.StatusOK}

	m := spotify.NewTokenManager(tokenConfig(mock.Server.URL))

	_, err := m.Token(context.Background())
	require.Error(t, err)

	// the next call attempts a fresh refresh and succeeds
	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-access-token", tok.Value)
	assert.Equal(t, 2, mock.RequestCount)
}

func TestToken_Misconfigured(t *testing.T) {
	mock := testhelpers.SetupMockTokenServer(t)

	cfg := tokenConfig(mock.Server.URL)
	cfg.RefreshToken = ""

	m := spotify.NewTokenManager(cfg)

	_, err := m.Token(context.Background())

	var authErr *spotify.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, spotify.AuthMisconfigured, authErr.Reason)
	assert.Zero(t, mock.RequestCount)
}
