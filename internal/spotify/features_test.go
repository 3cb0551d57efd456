package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeAudioFeatures_PerFieldCounting(t *testing.T) {
	// three tracks report danceability, only two report tempo: the tempo
	// average covers exactly those two
	features := []*wireAudioFeatures{
		{Danceability: ptr(0.2), Tempo: ptr(100.0)},
		{Danceability: ptr(0.4), Tempo: ptr(140.0)},
		{Danceability: ptr(0.6)},
	}

	summary := summarizeAudioFeatures(features)

	require.NotNil(t, summary.Danceability)
	assert.InDelta(t, 0.4, *summary.Danceability, 1e-9)

	require.NotNil(t, summary.Tempo)
	assert.InDelta(t, 120.0, *summary.Tempo, 1e-9)

	assert.Nil(t, summary.Energy)
	assert.Equal(t, 3, summary.SampleSize)
}

func TestSummarizeAudioFeatures_SkipsNilEntries(t *testing.T) {
	// the upstream returns null for tracks it cannot analyze
	features := []*wireAudioFeatures{
		nil,
		{Energy: ptr(0.5)},
		nil,
	}

	summary := summarizeAudioFeatures(features)

	require.NotNil(t, summary.Energy)
	assert.InDelta(t, 0.5, *summary.Energy, 1e-9)
	assert.Equal(t, 1, summary.SampleSize)
}

func TestSummarizeAudioFeatures_Empty(t *testing.T) {
	summary := summarizeAudioFeatures(nil)

	assert.Zero(t, summary.SampleSize)
	assert.Nil(t, summary.Danceability)
	assert.Nil(t, summary.Energy)
	assert.Nil(t, summary.Valence)
	assert.Nil(t, summary.Tempo)
	assert.Nil(t, summary.Acousticness)
	assert.Nil(t, summary.Instrumentalness)
}

func TestSummarizeAudioFeatures_AllFields(t *testing.T) {
	features := []*wireAudioFeatures{
		{
			Danceability:     ptr(0.1),
			Energy:           ptr(0.2),
			Valence:          ptr(0.3),
			Tempo:            ptr(90.0),
			Acousticness:     ptr(0.5),
			Instrumentalness: ptr(0.6),
		},
		{
			Danceability:     ptr(0.3),
			Energy:           ptr(0.4),
			Valence:          ptr(0.5),
			Tempo:            ptr(110.0),
			Acousticness:     ptr(0.7),
			Instrumentalness: ptr(0.8),
		},
	}

	summary := summarizeAudioFeatures(features)

	assert.Equal(t, 2, summary.SampleSize)
	assert.InDelta(t, 0.2, *summary.Danceability, 1e-9)
	assert.InDelta(t, 0.3, *summary.Energy, 1e-9)
	assert.InDelta(t, 0.4, *summary.Valence, 1e-9)
	assert.InDelta(t, 100.0, *summary.Tempo, 1e-9)
	assert.InDelta(t, 0.6, *summary.Acousticness, 1e-9)
	assert.InDelta(t, 0.7, *summary.Instrumentalness, 1e-9)
}
