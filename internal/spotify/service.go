package spotify

import (
	"context"
	"net/http"

	"github.com/nowbridge/nowbridge/internal/config"
	"github.com/nowbridge/nowbridge/internal/quota"
	"github.com/rs/zerolog/log"
)

const quotaNamespace = "spotify"

// operation names, used as the middle segment of quota keys
const (
	opNowPlaying     = "now-playing"
	opTopArtists     = "top-artists"
	opTopTracks      = "top-tracks"
	opRecentlyPlayed = "recently-played"
	opAudioFeatures  = "audio-features"
)

const (
	topListLimit        = 20
	recentlyPlayedLimit = 20

	// featureSampleLimit stays within the audio-features batch cap of 100
	// ids, so no chunking is needed on the second call.
	featureSampleLimit = 50
)

// Service exposes the read operations consumed by the site's RPC layer.
// Every operation follows the same sequence: quota gate, access token,
// upstream call, normalization. The quota check is unconditional and precedes
// even the token cache lookup, keeping quota enforcement independent of token
// state.
type Service struct {
	gate   quota.Gate
	tokens *TokenManager
	client *apiClient
}

// NewService wires the service from configuration. httpClient may be nil, in
// which case the process default (including any telemetry transport) is used.
func NewService(cfg config.SpotifyConfig, gate quota.Gate, httpClient *http.Client, tokenOpts ...TokenManagerOption) *Service {
	if httpClient != nil {
		tokenOpts = append([]TokenManagerOption{WithHTTPClient(httpClient)}, tokenOpts...)
	}

	return &Service{
		gate:   gate,
		tokens: NewTokenManager(cfg, tokenOpts...),
		client: newAPIClient(httpClient, cfg.APIURL),
	}
}

// CurrentlyPlaying reports the caller's current playback state. Nothing
// playing is a valid state: isPlaying false with a nil track.
func (s *Service) CurrentlyPlaying(ctx context.Context, callerID string) (PlaybackState, error) {
	if err := s.admit(ctx, opNowPlaying, callerID); err != nil {
		return PlaybackState{}, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return PlaybackState{}, err
	}

	cp, err := s.client.currentlyPlaying(ctx, token)
	if err != nil {
		return PlaybackState{}, err
	}

	return playbackState(cp), nil
}

// TopArtists returns the caller's most-listened artists for the time range.
func (s *Service) TopArtists(ctx context.Context, callerID string, timeRange TimeRange) ([]ArtistSummary, error) {
	if err := s.admit(ctx, opTopArtists, callerID); err != nil {
		return nil, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.client.topArtists(ctx, token, timeRange, topListLimit)
	if err != nil {
		return nil, err
	}

	return artistSummaries(page), nil
}

// TopTracks returns the caller's most-listened tracks for the time range.
func (s *Service) TopTracks(ctx context.Context, callerID string, timeRange TimeRange) ([]TrackSummary, error) {
	if err := s.admit(ctx, opTopTracks, callerID); err != nil {
		return nil, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.client.topTracks(ctx, token, timeRange, topListLimit)
	if err != nil {
		return nil, err
	}

	return trackSummaries(page), nil
}

// RecentlyPlayed returns the caller's play history, newest first as reported
// by the upstream.
func (s *Service) RecentlyPlayed(ctx context.Context, callerID string) ([]PlayedTrack, error) {
	if err := s.admit(ctx, opRecentlyPlayed, callerID); err != nil {
		return nil, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.client.recentlyPlayed(ctx, token, recentlyPlayedLimit)
	if err != nil {
		return nil, err
	}

	return playedTracks(page), nil
}

// AudioFeatureSummary aggregates audio statistics over the caller's top
// tracks. The audio-features call is strictly sequenced after top-tracks,
// since its input is the first call's output. An empty top-tracks sample
// short-circuits without a second call.
func (s *Service) AudioFeatureSummary(ctx context.Context, callerID string, timeRange TimeRange) (AudioFeatureSummary, error) {
	if err := s.admit(ctx, opAudioFeatures, callerID); err != nil {
		return AudioFeatureSummary{}, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return AudioFeatureSummary{}, err
	}

	page, err := s.client.topTracks(ctx, token, timeRange, featureSampleLimit)
	if err != nil {
		return AudioFeatureSummary{}, err
	}

	ids := make([]string, 0, len(page.Items))
	for _, t := range page.Items {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}

	if len(ids) == 0 {
		return AudioFeatureSummary{}, nil
	}

	features, err := s.client.audioFeatures(ctx, token, ids)
	if err != nil {
		return AudioFeatureSummary{}, err
	}

	return summarizeAudioFeatures(features.AudioFeatures), nil
}

func (s *Service) admit(ctx context.Context, operation, callerID string) error {
	key := quota.Key(quotaNamespace, operation, callerID)

	allowed, err := s.gate.Check(ctx, key)
	if err != nil {
		return &GateError{Key: key, cause: err}
	}

	if !allowed {
		log.Ctx(ctx).Info().Str("key", key).Msg("quota denied")
		return &RateLimitedError{}
	}

	return nil
}
