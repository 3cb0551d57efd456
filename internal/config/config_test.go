package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.spotify.com/v1", cfg.Spotify.APIURL)
	assert.Equal(t, "https://accounts.spotify.com/api/token", cfg.Spotify.TokenURL)
	assert.Equal(t, 60, cfg.Quota.RequestsPerMinute)
	assert.Equal(t, 10, cfg.Quota.Burst)
	assert.False(t, cfg.Observe.Enabled)
}

func TestLoad_SpotifyCredentials(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "refresh-token")

	cfg, err := Load(context.Background())
	assert.NoError(t, err)
	assert.True(t, cfg.Spotify.Configured())
}

func TestSpotifyConfig_NotConfigured(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	// secret and refresh token absent

	cfg, err := Load(context.Background())
	assert.NoError(t, err)
	assert.False(t, cfg.Spotify.Configured())
}

func TestQuotaConfig_Invalid(t *testing.T) {
	t.Setenv("QUOTA_REQUESTS_PER_MINUTE", "0")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "QUOTA_REQUESTS_PER_MINUTE")
}

func TestQuotaConfig_Override(t *testing.T) {
	t.Setenv("QUOTA_REQUESTS_PER_MINUTE", "120")
	t.Setenv("QUOTA_BURST", "30")

	cfg, err := Load(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 120, cfg.Quota.RequestsPerMinute)
	assert.Equal(t, 30, cfg.Quota.Burst)
}
