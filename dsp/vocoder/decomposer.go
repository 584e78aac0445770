package vocoder

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultVocoderFrameSize = 1024
	defaultVocoderHop       = 256
	defaultF0Min            = 60.0
	defaultF0Max            = 500.0
	defaultVoicingThreshold = 0.45
	minVocoderFrameSize     = 256

	envelopeSmoothRadius = 4
	energyFloor          = 1e-12
	octaveTolerance      = 1e-3
	refineDenomFloor     = 1e-9
)

// ErrDecomposition indicates an input the analysis stage cannot
// process: too short, silent, or containing non-finite samples.
var ErrDecomposition = errors.New("vocoder: decomposition failed")

// Decomposer extracts and resynthesizes vocoder features for a fixed
// sample rate and framing.
//
// It is mono and one-shot buffer oriented; a single instance reuses
// internal scratch buffers and must not be used concurrently.
type Decomposer struct {
	sampleRate       float64
	frameSize        int
	hop              int
	f0Min            float64
	f0Max            float64
	voicingThreshold float64
	noiseSeed        int64

	plan       *algofft.Plan[complex128]
	coeffs     []float64
	frame      []complex128
	windowGain float64
}

// Option configures a Decomposer at construction time.
type Option func(*Decomposer)

// WithFrameSize sets the analysis frame size. Must be a power of two >= 256.
func WithFrameSize(size int) Option {
	return func(d *Decomposer) {
		d.frameSize = size
	}
}

// WithHop sets the analysis hop in samples.
func WithHop(hop int) Option {
	return func(d *Decomposer) {
		d.hop = hop
	}
}

// WithPitchRange sets the fundamental-frequency search band in Hz.
func WithPitchRange(minHz, maxHz float64) Option {
	return func(d *Decomposer) {
		d.f0Min = minHz
		d.f0Max = maxHz
	}
}

// WithVoicingThreshold sets the normalized autocorrelation level above
// which a frame counts as voiced.
func WithVoicingThreshold(v float64) Option {
	return func(d *Decomposer) {
		d.voicingThreshold = v
	}
}

// WithNoiseSeed sets the deterministic seed for the aperiodic
// (noise) component of resynthesis.
func WithNoiseSeed(seed int64) Option {
	return func(d *Decomposer) {
		d.noiseSeed = seed
	}
}

// NewDecomposer creates a Decomposer bound to sampleRate.
// Defaults: frame 1024, hop 256, pitch range 60-500 Hz.
func NewDecomposer(sampleRate float64, opts ...Option) (*Decomposer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("vocoder: sample rate must be positive and finite: %f", sampleRate)
	}

	d := &Decomposer{
		sampleRate:       sampleRate,
		frameSize:        defaultVocoderFrameSize,
		hop:              defaultVocoderHop,
		f0Min:            defaultF0Min,
		f0Max:            defaultF0Max,
		voicingThreshold: defaultVoicingThreshold,
		noiseSeed:        1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	err := d.validate()
	if err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(d.frameSize)
	if err != nil {
		return nil, fmt.Errorf("vocoder: failed to create FFT plan: %w", err)
	}

	d.plan = plan
	d.frame = make([]complex128, d.frameSize)

	d.coeffs = window.Generate(window.TypeHann, d.frameSize, window.WithPeriodic())
	if len(d.coeffs) != d.frameSize {
		return nil, fmt.Errorf("vocoder: window generation failed for size %d", d.frameSize)
	}

	for _, w := range d.coeffs {
		d.windowGain += w
	}

	return d, nil
}

func (d *Decomposer) validate() error {
	if d.frameSize < minVocoderFrameSize || d.frameSize&(d.frameSize-1) != 0 {
		return fmt.Errorf("vocoder: frame size must be power-of-two and >= %d: %d",
			minVocoderFrameSize, d.frameSize)
	}

	if d.hop <= 0 || d.hop > d.frameSize {
		return fmt.Errorf("vocoder: hop must be in [1, %d]: %d", d.frameSize, d.hop)
	}

	if d.f0Min <= 0 || d.f0Max <= d.f0Min {
		return fmt.Errorf("vocoder: pitch range must satisfy 0 < min < max: [%f, %f]", d.f0Min, d.f0Max)
	}

	if d.f0Max >= d.sampleRate/2 {
		return fmt.Errorf("vocoder: pitch range maximum must stay below Nyquist: %f", d.f0Max)
	}

	if d.voicingThreshold <= 0 || d.voicingThreshold >= 1 {
		return fmt.Errorf("vocoder: voicing threshold must be in (0, 1): %f", d.voicingThreshold)
	}

	return nil
}

// SampleRate returns the configured sample rate in Hz.
func (d *Decomposer) SampleRate() float64 { return d.sampleRate }

// FrameSize returns the analysis frame size.
func (d *Decomposer) FrameSize() int { return d.frameSize }

// Hop returns the analysis hop in samples.
func (d *Decomposer) Hop() int { return d.hop }

// Bins returns the envelope bin count, frameSize/2 + 1.
func (d *Decomposer) Bins() int { return d.frameSize/2 + 1 }

// Decompose splits samples into pitch contour, spectral envelope, and
// aperiodicity. Returns ErrDecomposition for inputs that are shorter
// than one frame, entirely silent, or contain NaN/Inf samples.
func (d *Decomposer) Decompose(samples []float64) (*Features, error) {
	if len(samples) < d.frameSize {
		return nil, fmt.Errorf("%w: %d samples shorter than one frame of %d",
			ErrDecomposition, len(samples), d.frameSize)
	}

	peak := 0.0

	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite sample at index %d", ErrDecomposition, i)
		}

		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if peak == 0 {
		return nil, fmt.Errorf("%w: silent input", ErrDecomposition)
	}

	frames := 1 + (len(samples)-d.frameSize)/d.hop
	bins := d.Bins()
	windowed := make([]float64, d.frameSize)

	feats := &Features{
		F0:           make([]float64, frames),
		Envelope:     make([][]float64, frames),
		Aperiodicity: make([]float64, frames),
	}

	for f := range frames {
		pos := f * d.hop
		slice := samples[pos : pos+d.frameSize]

		f0, periodicity := d.estimateF0(slice)
		feats.F0[f] = f0

		if f0 > 0 {
			feats.Aperiodicity[f] = core.Clamp(1-periodicity, 0, 1)
		} else {
			feats.Aperiodicity[f] = 1
		}

		vecmath.MulBlock(windowed, slice, d.coeffs)

		for i, v := range windowed {
			d.frame[i] = complex(v, 0)
		}

		err := d.plan.Forward(d.frame, d.frame)
		if err != nil {
			return nil, fmt.Errorf("vocoder: forward FFT failed: %w", err)
		}

		// Scale by the window's coherent gain so envelope values are in
		// amplitude units: a unit sine lands near 1 at its bin.
		scale := 2 / d.windowGain

		mag := make([]float64, bins)
		for k := range bins {
			mag[k] = scale * math.Hypot(real(d.frame[k]), imag(d.frame[k]))
		}

		feats.Envelope[f] = smoothCurve(mag, envelopeSmoothRadius)
	}

	return feats, nil
}

// estimateF0 returns the fundamental frequency of one frame in Hz and
// the normalized autocorrelation peak backing it. Unvoiced frames
// return (0, peak).
func (d *Decomposer) estimateF0(x []float64) (f0, periodicity float64) {
	minLag := int(d.sampleRate / d.f0Max)
	maxLag := int(d.sampleRate / d.f0Min)

	if maxLag > len(x)/2 {
		maxLag = len(x) / 2
	}

	if minLag < 2 || minLag >= maxLag {
		return 0, 0
	}

	acf := make([]float64, maxLag+1)
	bestLag := 0
	bestR := 0.0

	for lag := minLag; lag <= maxLag; lag++ {
		r := normalizedACF(x, lag)
		acf[lag] = r

		if r > bestR {
			bestR = r
			bestLag = lag
		}
	}

	if bestLag == 0 || bestR < d.voicingThreshold {
		return 0, bestR
	}

	// Octave disambiguation: lag multiples of the true period score the
	// same, so take the shortest lag within tolerance of the maximum.
	for lag := minLag; lag < bestLag; lag++ {
		if acf[lag] >= bestR-octaveTolerance {
			bestLag = lag
			bestR = acf[lag]

			break
		}
	}

	// Parabolic refinement around the winning lag.
	lagF := float64(bestLag)

	if bestLag > minLag && bestLag < maxLag {
		prev := acf[bestLag-1]
		next := acf[bestLag+1]

		denom := prev - 2*bestR + next
		if denom < -refineDenomFloor {
			corr := 0.5 * (prev - next) / denom
			lagF += core.Clamp(corr, -1, 1)
		}
	}

	return d.sampleRate / lagF, bestR
}

// normalizedACF computes the normalized autocorrelation of x at lag.
func normalizedACF(x []float64, lag int) float64 {
	n := len(x) - lag
	if n <= 0 {
		return 0
	}

	var cross, e0, e1 float64

	for i := range n {
		a := x[i]
		b := x[i+lag]
		cross += a * b
		e0 += a * a
		e1 += b * b
	}

	denom := math.Sqrt(e0 * e1)
	if denom < energyFloor {
		return 0
	}

	return cross / denom
}

// smoothCurve applies a centered moving average with the given radius.
func smoothCurve(curve []float64, radius int) []float64 {
	out := make([]float64, len(curve))

	for i := range curve {
		lo := i - radius
		if lo < 0 {
			lo = 0
		}

		hi := i + radius
		if hi > len(curve)-1 {
			hi = len(curve) - 1
		}

		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += curve[j]
		}

		out[i] = sum / float64(hi-lo+1)
	}

	return out
}
