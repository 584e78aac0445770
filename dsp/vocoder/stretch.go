package vocoder

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/resample"
)

const (
	stretchIdentityEps = 1e-9
	stretchPrecision   = 1000
)

// Stretch changes the duration of samples by a rate factor through
// rational resampling, as a post-process after resynthesis.
//
// Rate > 1 shortens the signal (faster speech), rate < 1 lengthens it.
// The output length is approximately len(samples)/rate.
func Stretch(samples []float64, rate float64) ([]float64, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("vocoder: stretch rate must be positive and finite: %f", rate)
	}

	if math.Abs(rate-1) <= stretchIdentityEps {
		out := make([]float64, len(samples))
		copy(out, samples)

		return out, nil
	}

	up := stretchPrecision
	down := int(math.Round(rate * stretchPrecision))

	if down <= 0 {
		return nil, fmt.Errorf("vocoder: stretch rate too small: %f", rate)
	}

	g := gcd(up, down)

	out, err := resample.Resample(samples, up/g, down/g, resample.WithQuality(resample.QualityBalanced))
	if err != nil {
		return nil, fmt.Errorf("vocoder: time stretch failed: %w", err)
	}

	return out, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}
