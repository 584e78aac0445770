package vocoder

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-voicemorph/dsp/warp"
)

const (
	synthNormFloor   = 1e-12
	harmonicAmpFloor = 1e-9
)

// Resynthesize reconstructs a waveform from a Features triple.
//
// Voiced frames are built by phase-continuous additive synthesis of the
// harmonics of F0, with per-harmonic amplitudes sampled from the
// spectral envelope; the aperiodic component adds envelope-scaled noise.
// Frames are assembled by windowed overlap-add. The output length
// follows the framing, (frames-1)*hop + frameSize.
func (d *Decomposer) Resynthesize(f *Features) ([]float64, error) {
	err := f.validateAligned()
	if err != nil {
		return nil, err
	}

	bins := len(f.Envelope[0])
	binHz := d.sampleRate / 2 / float64(bins-1)
	frames := f.Frames()
	outLen := (frames-1)*d.hop + d.frameSize

	out := make([]float64, outLen)
	norm := make([]float64, outLen)
	frameBuf := make([]float64, d.frameSize)
	phases := make([]float64, bins)
	rng := rand.New(rand.NewSource(d.noiseSeed))

	const twoPi = 2 * math.Pi

	for fr := range frames {
		f0 := f.F0[fr]
		if f0 < 0 || math.IsNaN(f0) || math.IsInf(f0, 0) {
			return nil, fmt.Errorf("vocoder: pitch contour frame %d is invalid: %f", fr, f0)
		}

		ap := core.Clamp(f.Aperiodicity[fr], 0, 1)
		env := f.Envelope[fr]

		for i := range frameBuf {
			frameBuf[i] = 0
		}

		if f0 > 0 && f0 < d.sampleRate/2 {
			harmonics := int(d.sampleRate / 2 / f0)
			if harmonics > bins-1 {
				harmonics = bins - 1
			}

			voicedGain := 1 - ap

			for h := 1; h <= harmonics; h++ {
				amp := warp.SampleCurve(env, float64(h)*f0/binHz) * voicedGain
				if amp < harmonicAmpFloor {
					continue
				}

				step := twoPi * f0 * float64(h) / d.sampleRate
				phase := phases[h]

				for i := range frameBuf {
					frameBuf[i] += amp * math.Cos(phase+step*float64(i))
				}
			}

			// Keep harmonic phases continuous across the hop.
			for h := 1; h < len(phases); h++ {
				phases[h] = math.Mod(phases[h]+twoPi*f0*float64(h)*float64(d.hop)/d.sampleRate, twoPi)
			}
		}

		if ap > 0 {
			noiseAmp := ap * curveRMS(env)
			for i := range frameBuf {
				frameBuf[i] += noiseAmp * (rng.Float64()*2 - 1)
			}
		}

		pos := fr * d.hop
		for i := range frameBuf {
			w := d.coeffs[i]
			out[pos+i] += frameBuf[i] * w
			norm[pos+i] += w
		}
	}

	for i := range out {
		if norm[i] > synthNormFloor {
			out[i] /= norm[i]
		}
	}

	return out, nil
}

// curveRMS returns the root-mean-square of a curve.
func curveRMS(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range curve {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(curve)))
}
