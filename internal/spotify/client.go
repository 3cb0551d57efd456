package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// apiClient issues the upstream data calls. It does not retry: a failed data
// call fails the operation straight through, since stale page data is not
// worth masking upstream outages. Retries exist only on the token path.
type apiClient struct {
	httpClient *http.Client
	baseURL    string
}

func newAPIClient(httpClient *http.Client, baseURL string) *apiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &apiClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// get performs a bearer-authenticated GET and decodes the body into out.
// A 204 No Content response returns found=false with no error; it is the
// upstream's way of reporting an empty result, not a failure.
func (c *apiClient) get(ctx context.Context, path string, query url.Values, token AccessToken, out any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &UpstreamError{cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return false, &RateLimitedError{Upstream: true}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, &UpstreamError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, &UpstreamError{cause: fmt.Errorf("decode response: %w", err)}
	}

	return true, nil
}

func classifyTransportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &UpstreamError{Timeout: true, cause: err}
	}
	return &UpstreamError{cause: err}
}

// currentlyPlaying returns nil (without error) when nothing is playing.
func (c *apiClient) currentlyPlaying(ctx context.Context, token AccessToken) (*wireCurrentlyPlaying, error) {
	var cp wireCurrentlyPlaying
	found, err := c.get(ctx, "/me/player/currently-playing", nil, token, &cp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cp, nil
}

func (c *apiClient) topArtists(ctx context.Context, token AccessToken, timeRange TimeRange, limit int) (wireArtistPage, error) {
	var page wireArtistPage
	query := url.Values{
		"time_range": {string(timeRange)},
		"limit":      {strconv.Itoa(limit)},
	}
	_, err := c.get(ctx, "/me/top/artists", query, token, &page)
	return page, err
}

func (c *apiClient) topTracks(ctx context.Context, token AccessToken, timeRange TimeRange, limit int) (wireTrackPage, error) {
	var page wireTrackPage
	query := url.Values{
		"time_range": {string(timeRange)},
		"limit":      {strconv.Itoa(limit)},
	}
	_, err := c.get(ctx, "/me/top/tracks", query, token, &page)
	return page, err
}

func (c *apiClient) recentlyPlayed(ctx context.Context, token AccessToken, limit int) (wireRecentlyPlayed, error) {
	var page wireRecentlyPlayed
	query := url.Values{
		"limit": {strconv.Itoa(limit)},
	}
	_, err := c.get(ctx, "/me/player/recently-played", query, token, &page)
	return page, err
}

// audioFeatures fetches features for up to 100 track ids in one batch call.
func (c *apiClient) audioFeatures(ctx context.Context, token AccessToken, ids []string) (wireAudioFeaturePage, error) {
	var page wireAudioFeaturePage
	query := url.Values{
		"ids": {strings.Join(ids, ",")},
	}
	_, err := c.get(ctx, "/audio-features", query, token, &page)
	return page, err
}
