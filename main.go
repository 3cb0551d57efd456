package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/justinas/alice"
	"github.com/nowbridge/nowbridge/internal/config"
	"github.com/nowbridge/nowbridge/internal/observe"
	"github.com/nowbridge/nowbridge/internal/quota"
	"github.com/nowbridge/nowbridge/internal/server"
	"github.com/nowbridge/nowbridge/internal/spotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func configureServerRoutes(cfg config.Config) http.Handler {
	// wrap a mux such that HTTP telemetry is configured by default
	muxWithoutTelemetry := http.NewServeMux()
	mux := observe.NewMux(muxWithoutTelemetry)

	// The request body size is tightly limited: every route is a read
	// operation and bodies are ignored.
	requestLimitBytes := int64(20 << 10) // 20 KB
	standardRouteMiddleware := alice.New(maxRequestSize(requestLimitBytes))

	gate := quota.NewLocal(cfg.Quota.RequestsPerMinute, cfg.Quota.Burst, cfg.Quota.MaxKeys)
	svc := spotify.NewService(cfg.Spotify, gate, http.DefaultClient)

	mux.Handle("GET /spotify/now-playing", standardRouteMiddleware.Then(handleNowPlaying(svc)))
	mux.Handle("GET /spotify/top/artists", standardRouteMiddleware.Then(handleTopArtists(svc)))
	mux.Handle("GET /spotify/top/tracks", standardRouteMiddleware.Then(handleTopTracks(svc)))
	mux.Handle("GET /spotify/recently-played", standardRouteMiddleware.Then(handleRecentlyPlayed(svc)))
	mux.Handle("GET /spotify/audio-features", standardRouteMiddleware.Then(handleAudioFeatures(svc)))

	// healthchecks are not included in telemetry
	muxWithoutTelemetry.Handle("GET /healthcheck", standardRouteMiddleware.Then(handleHealthCheck()))

	return mux
}

func main() {
	configureLogging()

	logBuildInfo()

	err := launchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	if !cfg.Spotify.Configured() {
		log.Warn().Msg("spotify credentials incomplete: spotify routes will report errors")
	}

	// configure telemetry, including wrapping the default HTTP client used
	// for upstream calls
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}

	http.DefaultTransport = observe.HTTPTransport(
		configureHTTPTransport(cfg.Server),
		cfg.Observe,
	)
	http.DefaultClient = &http.Client{
		Transport: http.DefaultTransport,
	}

	handler := configureServerRoutes(cfg)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	hooks := &server.ShutdownHooks{}
	hooks.AddContext("telemetry", shutdownTelemetry)

	log.Info().Int("port", cfg.Server.Port).Msg("server starting")

	err = server.Run(httpServer,
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second, hooks)
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func configureLogging() {
	// Set global level to the minimum: allows the OTel SDK logging level to
	// be configured separately.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}
