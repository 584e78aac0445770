package vocoder

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-voicemorph/dsp/warp"
)

// Features is the frame-aligned decomposition of a waveform.
//
// F0 holds the per-frame fundamental frequency in Hz, 0 marking
// unvoiced frames. Envelope holds the per-frame magnitude-vs-bin
// spectral envelope. Aperiodicity holds the per-frame noise ratio in
// [0, 1]. The three slices always describe the same frames; the
// modification methods preserve that alignment.
type Features struct {
	F0           []float64
	Envelope     [][]float64
	Aperiodicity []float64
}

// Frames returns the number of analysis frames.
func (f *Features) Frames() int { return len(f.F0) }

// Clone returns a deep copy of the features.
func (f *Features) Clone() *Features {
	out := &Features{
		F0:           append([]float64(nil), f.F0...),
		Aperiodicity: append([]float64(nil), f.Aperiodicity...),
		Envelope:     make([][]float64, len(f.Envelope)),
	}
	for i, row := range f.Envelope {
		out.Envelope[i] = append([]float64(nil), row...)
	}

	return out
}

// ShiftPitch multiplies every voiced pitch value by 2^(semitones/12).
// Unvoiced (zero) frames stay unvoiced.
func (f *Features) ShiftPitch(semitones float64) {
	ratio := math.Pow(2, semitones/12)
	for i, v := range f.F0 {
		if v > 0 {
			f.F0[i] = v * ratio
		}
	}
}

// WarpEnvelope resamples each frame's envelope curve at bin positions
// scaled by ratio, clamped at the array boundary. Ratio > 1 moves
// spectral structure toward higher bins, perceptually raising formants;
// ratio < 1 lowers them.
func (f *Features) WarpEnvelope(ratio float64) error {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return fmt.Errorf("vocoder: envelope ratio must be positive and finite: %f", ratio)
	}

	if ratio == 1 {
		return nil
	}

	var tmp []float64

	for _, row := range f.Envelope {
		if cap(tmp) < len(row) {
			tmp = make([]float64, len(row))
		}

		tmp = tmp[:len(row)]
		copy(tmp, row)

		for j := range row {
			row[j] = warp.SampleCurve(tmp, float64(j)/ratio)
		}
	}

	return nil
}

// validateAligned reports whether the three feature arrays describe the
// same frames with a consistent bin count.
func (f *Features) validateAligned() error {
	if len(f.F0) == 0 {
		return fmt.Errorf("vocoder: features are empty")
	}

	if len(f.Envelope) != len(f.F0) || len(f.Aperiodicity) != len(f.F0) {
		return fmt.Errorf("vocoder: features out of alignment: f0 %d, envelope %d, aperiodicity %d",
			len(f.F0), len(f.Envelope), len(f.Aperiodicity))
	}

	bins := len(f.Envelope[0])
	if bins < 2 {
		return fmt.Errorf("vocoder: envelope must have at least 2 bins: %d", bins)
	}

	for i, row := range f.Envelope {
		if len(row) != bins {
			return fmt.Errorf("vocoder: envelope frame %d has %d bins, want %d", i, len(row), bins)
		}
	}

	return nil
}
