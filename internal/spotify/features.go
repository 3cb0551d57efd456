package spotify

// featureAccumulator keeps an independent (sum, count) pair for one feature.
// A track missing tempo must not exclude it from the danceability average,
// so each feature counts its own contributors.
type featureAccumulator struct {
	sum   float64
	count int
}

func (a *featureAccumulator) add(v *float64) {
	if v == nil {
		return
	}
	a.sum += *v
	a.count++
}

func (a *featureAccumulator) average() *float64 {
	if a.count == 0 {
		return nil
	}
	avg := a.sum / float64(a.count)
	return &avg
}

// summarizeAudioFeatures reduces a batch of per-track feature payloads into
// field-wise averages. Nil entries (tracks the upstream could not analyze)
// are skipped. SampleSize reports the best-populated field's count.
func summarizeAudioFeatures(features []*wireAudioFeatures) AudioFeatureSummary {
	var danceability, energy, valence, tempo, acousticness, instrumentalness featureAccumulator

	for _, f := range features {
		if f == nil {
			continue
		}
		danceability.add(f.Danceability)
		energy.add(f.Energy)
		valence.add(f.Valence)
		tempo.add(f.Tempo)
		acousticness.add(f.Acousticness)
		instrumentalness.add(f.Instrumentalness)
	}

	summary := AudioFeatureSummary{
		Danceability:     danceability.average(),
		Energy:           energy.average(),
		Valence:          valence.average(),
		Tempo:            tempo.average(),
		Acousticness:     acousticness.average(),
		Instrumentalness: instrumentalness.average(),
	}

	for _, a := range []featureAccumulator{danceability, energy, valence, tempo, acousticness, instrumentalness} {
		if a.count > summary.SampleSize {
			summary.SampleSize = a.count
		}
	}

	return summary
}
