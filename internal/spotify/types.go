package spotify

import (
	"fmt"
	"time"
)

// TimeRange scopes "top" queries to one of the three upstream-defined
// windows.
type TimeRange string

const (
	TimeRangeShort  TimeRange = "short_term"  // ~4 weeks
	TimeRangeMedium TimeRange = "medium_term" // ~6 months
	TimeRangeLong   TimeRange = "long_term"   // all time
)

// ParseTimeRange accepts either the short caller-facing form ("short",
// "medium", "long") or the full upstream value. An empty value defaults to
// the short window.
func ParseTimeRange(s string) (TimeRange, error) {
	switch s {
	case "", "short", string(TimeRangeShort):
		return TimeRangeShort, nil
	case "medium", string(TimeRangeMedium):
		return TimeRangeMedium, nil
	case "long", string(TimeRangeLong):
		return TimeRangeLong, nil
	}
	return "", fmt.Errorf("invalid time range: %q", s)
}

// TrackSummary is the normalized track shape returned to callers. It is
// always fully formed: optional upstream fields are nil, never partially
// populated.
type TrackSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	AlbumImage *string `json:"albumImage"`
	URL        string  `json:"url"`
	PreviewURL *string `json:"previewUrl,omitempty"`
	DurationMs int     `json:"durationMs"`
	Popularity *int    `json:"popularity,omitempty"`
}

// ArtistSummary is the normalized artist shape returned to callers.
type ArtistSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Image     *string  `json:"image"`
	URL       string   `json:"url"`
	Followers int      `json:"followers"`
	Genres    []string `json:"genres"`
}

// PlaybackState reports what is currently playing. Track is nil when nothing
// is playing, or when the upstream reports playback without a track item;
// neither is an error.
type PlaybackState struct {
	IsPlaying  bool          `json:"isPlaying"`
	ProgressMs *int          `json:"progressMs,omitempty"`
	Track      *TrackSummary `json:"track"`
}

// PlayedTrack is a recently played track with its play timestamp. PlayedAt is
// nil when the upstream omits or mangles the timestamp; the track itself is
// still reported.
type PlayedTrack struct {
	TrackSummary
	PlayedAt *time.Time `json:"playedAt,omitempty"`
}

// AudioFeatureSummary aggregates per-track audio statistics across a sample
// of top tracks. Each field is nil when no track in the sample reported that
// feature. SampleSize is the count of the best-populated field, since the
// upstream omits features unevenly.
type AudioFeatureSummary struct {
	SampleSize       int      `json:"sampleSize"`
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Valence          *float64 `json:"valence"`
	Tempo            *float64 `json:"tempo"`
	Acousticness     *float64 `json:"acousticness"`
	Instrumentalness *float64 `json:"instrumentalness"`
}
