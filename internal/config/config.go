package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Observe ObserveConfig
	Quota   QuotaConfig
	Server  ServerConfig
	Spotify SpotifyConfig
}

type ServerConfig struct {
	Port                   int `env:"SERVER_PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
}

// SpotifyConfig holds the upstream credentials and endpoints. The three
// credential values are deliberately not marked required: the service starts
// without them, and the token manager reports a misconfiguration error when
// the Spotify routes are exercised.
type SpotifyConfig struct {
	ClientID     string `env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`
	RefreshToken string `env:"SPOTIFY_REFRESH_TOKEN"`

	// APIURL and TokenURL are overridable for testing only.
	APIURL   string `env:"SPOTIFY_API_URL, default=https://api.spotify.com/v1"`
	TokenURL string `env:"SPOTIFY_TOKEN_URL, default=https://accounts.spotify.com/api/token"`
}

// QuotaConfig configures the per-caller quota gate.
type QuotaConfig struct {
	// RequestsPerMinute is the sustained per-key rate. A key combines the
	// operation name with the caller identity.
	RequestsPerMinute int `env:"QUOTA_REQUESTS_PER_MINUTE, default=60"`

	// Burst is the instantaneous allowance per key.
	Burst int `env:"QUOTA_BURST, default=10"`

	// MaxKeys bounds the number of tracked caller keys.
	MaxKeys int `env:"QUOTA_MAX_KEYS, default=100000"`
}

type ObserveConfig struct {
	SDKLogLevel               string `env:"OBSERVE_OTEL_LOG_LEVEL, default=info"`
	Enabled                   bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled            bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                      string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName               string `env:"OBSERVE_SERVICE_NAME, default=nowbridge"`
	TraceBatchTimeoutSeconds  int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled      bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
	HTTPConnectionTrace       bool   `env:"OBSERVE_CONNECTION_TRACE_ENABLED, default=true"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Quota.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid quota configuration: %w", err)
	}

	return cfg, nil
}

// Configured reports whether all three upstream credentials are present.
func (c SpotifyConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks that the quota configuration is usable.
func (c *QuotaConfig) Validate() error {
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("QUOTA_REQUESTS_PER_MINUTE must be positive")
	}
	if c.Burst <= 0 {
		return fmt.Errorf("QUOTA_BURST must be positive")
	}
	if c.MaxKeys <= 0 {
		return fmt.Errorf("QUOTA_MAX_KEYS must be positive")
	}
	return nil
}
