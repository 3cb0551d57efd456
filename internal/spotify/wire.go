package spotify

// Raw upstream payload shapes, decoded defensively: every nested object that
// the upstream sometimes omits is a pointer, and slices decode to nil when
// absent. Unknown fields are ignored.

type wireImage struct {
	URL string `json:"url"`
}

type wireExternalURLs struct {
	Spotify string `json:"spotify"`
}

type wireFollowers struct {
	Total int `json:"total"`
}

type wireArtistRef struct {
	Name string `json:"name"`
}

type wireAlbum struct {
	Name   string      `json:"name"`
	Images []wireImage `json:"images"`
}

type wireTrack struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []wireArtistRef   `json:"artists"`
	Album        *wireAlbum        `json:"album"`
	DurationMs   int               `json:"duration_ms"`
	Popularity   *int              `json:"popularity"`
	PreviewURL   *string           `json:"preview_url"`
	ExternalURLs *wireExternalURLs `json:"external_urls"`
}

type wireArtist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Images       []wireImage       `json:"images"`
	Followers    *wireFollowers    `json:"followers"`
	Genres       []string          `json:"genres"`
	ExternalURLs *wireExternalURLs `json:"external_urls"`
}

type wireCurrentlyPlaying struct {
	IsPlaying  bool       `json:"is_playing"`
	ProgressMs *int       `json:"progress_ms"`
	Item       *wireTrack `json:"item"`
}

type wireTrackPage struct {
	Items []wireTrack `json:"items"`
}

type wireArtistPage struct {
	Items []wireArtist `json:"items"`
}

type wirePlayHistory struct {
	Track    *wireTrack `json:"track"`
	PlayedAt string     `json:"played_at"`
}

type wireRecentlyPlayed struct {
	Items []wirePlayHistory `json:"items"`
}

type wireAudioFeatures struct {
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Valence          *float64 `json:"valence"`
	Tempo            *float64 `json:"tempo"`
	Acousticness     *float64 `json:"acousticness"`
	Instrumentalness *float64 `json:"instrumentalness"`
}

type wireAudioFeaturePage struct {
	AudioFeatures []*wireAudioFeatures `json:"audio_features"`
}

type wireTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
