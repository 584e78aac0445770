package warp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/interp"
)

var linear = interp.NewLagrangeInterpolator(1)

// SampleCurve samples curve at the fractional index pos using linear
// interpolation. Positions outside [0, len(curve)-1] are clamped to the
// boundary values. An empty curve yields 0.
func SampleCurve(curve []float64, pos float64) float64 {
	n := len(curve)
	if n == 0 {
		return 0
	}

	pos = core.Clamp(pos, 0, float64(n-1))

	lo := int(pos)
	if lo >= n-1 {
		return curve[n-1]
	}

	return linear.Interpolate(curve[lo:lo+2], pos-float64(lo))
}

// Magnitude warps a frame-major magnitude matrix along the frequency
// axis by factor alpha, leaving bins above maxFreq untouched.
//
// binHz is the linear bin spacing, sampleRate/2/(bins-1). alpha > 1
// raises the spectral structure below maxFreq, alpha < 1 lowers it, and
// alpha == 1 returns an exact copy. Output bins whose source frequency
// f/alpha falls outside [0, maxFreq] are set to zero: energy is never
// pulled in from outside the warpable band.
func Magnitude(mag [][]float64, alpha, maxFreq, binHz float64) ([][]float64, error) {
	if !isFinitePositive(alpha) {
		return nil, fmt.Errorf("warp: alpha must be positive and finite: %f", alpha)
	}

	if maxFreq < 0 || math.IsNaN(maxFreq) || math.IsInf(maxFreq, 0) {
		return nil, fmt.Errorf("warp: max frequency must be >= 0 and finite: %f", maxFreq)
	}

	if !isFinitePositive(binHz) {
		return nil, fmt.Errorf("warp: bin spacing must be positive and finite: %f", binHz)
	}

	out := make([][]float64, len(mag))
	for f, row := range mag {
		warped := make([]float64, len(row))

		for i := range row {
			freq := float64(i) * binHz
			if freq > maxFreq {
				warped[i] = row[i]
				continue
			}

			src := freq / alpha
			if src > maxFreq {
				continue
			}

			warped[i] = SampleCurve(row, src/binHz)
		}

		out[f] = warped
	}

	return out, nil
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
