package testutil

import "math"

// EstimateF0 estimates the fundamental frequency of a signal in Hz by
// picking the strongest normalized autocorrelation lag in
// [minHz, maxHz]. Returns 0 when no periodic structure is found.
func EstimateF0(data []float64, sampleRate, minHz, maxHz float64) float64 {
	minLag := int(sampleRate / maxHz)
	maxLag := int(sampleRate / minHz)
	if maxLag > len(data)/2 {
		maxLag = len(data) / 2
	}
	if minLag < 2 || minLag >= maxLag {
		return 0
	}

	acf := make([]float64, maxLag+1)
	bestLag := 0
	bestR := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		n := len(data) - lag
		var cross, e0, e1 float64
		for i := 0; i < n; i++ {
			cross += data[i] * data[i+lag]
			e0 += data[i] * data[i]
			e1 += data[i+lag] * data[i+lag]
		}
		denom := math.Sqrt(e0 * e1)
		if denom == 0 {
			continue
		}
		acf[lag] = cross / denom
		if acf[lag] > bestR {
			bestR = acf[lag]
			bestLag = lag
		}
	}

	if bestLag == 0 || bestR < 0.3 {
		return 0
	}

	// Lag multiples of the true period tie; prefer the shortest.
	for lag := minLag; lag < bestLag; lag++ {
		if acf[lag] >= bestR-1e-3 {
			bestLag = lag
			break
		}
	}

	return sampleRate / float64(bestLag)
}
