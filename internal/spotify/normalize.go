package spotify

import (
	"strings"
	"time"
)

// Normalization of raw upstream payloads into the caller-facing shapes.
// Every optional nested field is defaulted rather than dereferenced: the
// upstream payload shape is outside this system's control, so malformed or
// absent fields degrade to empty values instead of failing the call.

// firstImageURL selects the first image variant with a usable URL, in
// upstream order. Returns nil when no variant is present.
func firstImageURL(images []wireImage) *string {
	for _, img := range images {
		if img.URL != "" {
			url := img.URL
			return &url
		}
	}
	return nil
}

// joinArtistNames flattens a track's artist list into a single display
// string, preserving upstream order.
func joinArtistNames(artists []wireArtistRef) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

func trackSummary(t wireTrack) TrackSummary {
	summary := TrackSummary{
		ID:         t.ID,
		Name:       t.Name,
		Artist:     joinArtistNames(t.Artists),
		DurationMs: t.DurationMs,
		Popularity: t.Popularity,
		PreviewURL: t.PreviewURL,
	}

	if t.Album != nil {
		summary.Album = t.Album.Name
		summary.AlbumImage = firstImageURL(t.Album.Images)
	}

	if t.ExternalURLs != nil {
		summary.URL = t.ExternalURLs.Spotify
	}

	return summary
}

func artistSummary(a wireArtist) ArtistSummary {
	summary := ArtistSummary{
		ID:     a.ID,
		Name:   a.Name,
		Image:  firstImageURL(a.Images),
		Genres: a.Genres,
	}

	if a.Genres == nil {
		summary.Genres = []string{}
	}

	if a.Followers != nil {
		summary.Followers = a.Followers.Total
	}

	if a.ExternalURLs != nil {
		summary.URL = a.ExternalURLs.Spotify
	}

	return summary
}

// playbackState maps the currently-playing payload. A nil payload (the 204
// case) normalizes to "not playing". An absent item with a present payload is
// different: the upstream omits the item for some playback contexts (local
// files, some episode types) while still reporting is_playing, so the flag
// and progress pass through with a nil track.
func playbackState(cp *wireCurrentlyPlaying) PlaybackState {
	if cp == nil {
		return PlaybackState{IsPlaying: false, Track: nil}
	}
	if cp.Item == nil {
		return PlaybackState{
			IsPlaying:  cp.IsPlaying,
			ProgressMs: cp.ProgressMs,
			Track:      nil,
		}
	}

	track := trackSummary(*cp.Item)
	return PlaybackState{
		IsPlaying:  cp.IsPlaying,
		ProgressMs: cp.ProgressMs,
		Track:      &track,
	}
}

func trackSummaries(page wireTrackPage) []TrackSummary {
	summaries := make([]TrackSummary, 0, len(page.Items))
	for _, t := range page.Items {
		summaries = append(summaries, trackSummary(t))
	}
	return summaries
}

func artistSummaries(page wireArtistPage) []ArtistSummary {
	summaries := make([]ArtistSummary, 0, len(page.Items))
	for _, a := range page.Items {
		summaries = append(summaries, artistSummary(a))
	}
	return summaries
}

// playedTracks maps the recently-played payload. Entries without a track are
// dropped; entries with an unparseable timestamp keep the track and drop the
// timestamp.
func playedTracks(page wireRecentlyPlayed) []PlayedTrack {
	tracks := make([]PlayedTrack, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track == nil {
			continue
		}

		played := PlayedTrack{TrackSummary: trackSummary(*item.Track)}
		if at, err := time.Parse(time.RFC3339, item.PlayedAt); err == nil {
			played.PlayedAt = &at
		}

		tracks = append(tracks, played)
	}
	return tracks
}
