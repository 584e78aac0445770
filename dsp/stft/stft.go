package stft

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultFrameSize    = 1024
	defaultHop          = 256
	minFrameSize        = 64
	overlapAddNormFloor = 1e-12
)

// ErrShortInput indicates an input shorter than one analysis window.
var ErrShortInput = errors.New("stft: input shorter than analysis window")

// Transform is a fixed-configuration STFT analysis/synthesis pair.
//
// A Transform is mono and one-shot buffer oriented. It reuses internal
// FFT scratch buffers, so a single instance must not be used
// concurrently; independent instances are safe in parallel.
type Transform struct {
	sampleRate   float64
	frameSize    int
	hop          int
	windowLength int

	plan   *algofft.Plan[complex128]
	coeffs []float64
	frame  []complex128
}

// Option configures a Transform at construction time.
type Option func(*Transform)

// WithFrameSize sets the FFT frame size. Must be a power of two >= 64.
func WithFrameSize(size int) Option {
	return func(t *Transform) {
		t.frameSize = size
	}
}

// WithHop sets the analysis/synthesis hop in samples.
func WithHop(hop int) Option {
	return func(t *Transform) {
		t.hop = hop
	}
}

// WithWindowLength sets the window length in samples. Values shorter
// than the frame size are zero-padded symmetrically within the frame.
func WithWindowLength(length int) Option {
	return func(t *Transform) {
		t.windowLength = length
	}
}

// New creates a Transform bound to the given sample rate.
// Defaults: frame size 1024, hop 256, window length equal to frame size.
func New(sampleRate float64, opts ...Option) (*Transform, error) {
	if !isFinitePositive(sampleRate) {
		return nil, fmt.Errorf("stft: sample rate must be positive and finite: %f", sampleRate)
	}

	t := &Transform{
		sampleRate: sampleRate,
		frameSize:  defaultFrameSize,
		hop:        defaultHop,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	if t.windowLength == 0 {
		t.windowLength = t.frameSize
	}

	err := t.validate()
	if err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(t.frameSize)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	t.plan = plan
	t.frame = make([]complex128, t.frameSize)

	t.coeffs = window.Generate(window.TypeHann, t.windowLength, window.WithPeriodic())
	if len(t.coeffs) != t.windowLength {
		return nil, fmt.Errorf("stft: window generation failed for length %d", t.windowLength)
	}

	return t, nil
}

func (t *Transform) validate() error {
	if t.frameSize < minFrameSize || !isPowerOf2(t.frameSize) {
		return fmt.Errorf("stft: frame size must be power-of-two and >= %d: %d", minFrameSize, t.frameSize)
	}

	if t.hop <= 0 || t.hop > t.frameSize {
		return fmt.Errorf("stft: hop must be in [1, %d]: %d", t.frameSize, t.hop)
	}

	if t.windowLength <= 0 || t.windowLength > t.frameSize {
		return fmt.Errorf("stft: window length must be in [1, %d]: %d", t.frameSize, t.windowLength)
	}

	return nil
}

// SampleRate returns the configured sample rate in Hz.
func (t *Transform) SampleRate() float64 { return t.sampleRate }

// FrameSize returns the FFT frame size.
func (t *Transform) FrameSize() int { return t.frameSize }

// Hop returns the hop size in samples.
func (t *Transform) Hop() int { return t.hop }

// WindowLength returns the analysis window length in samples.
func (t *Transform) WindowLength() int { return t.windowLength }

// Bins returns the one-sided spectrum bin count, frameSize/2 + 1.
func (t *Transform) Bins() int { return t.frameSize/2 + 1 }

// BinFrequency returns the center frequency of bin i in Hz.
func (t *Transform) BinFrequency(i int) float64 {
	return float64(i) * t.BinHz()
}

// BinHz returns the linear bin spacing in Hz, sampleRate/2/(bins-1).
func (t *Transform) BinHz() float64 {
	return t.sampleRate / 2 / float64(t.Bins()-1)
}

// FrameCount returns the number of analysis frames for n input samples,
// or 0 when n is shorter than the window.
func (t *Transform) FrameCount(n int) int {
	if n < t.windowLength {
		return 0
	}

	return 1 + (n-t.windowLength)/t.hop
}

// OutputLength returns the synthesis output length for the given frame count.
func (t *Transform) OutputLength(frames int) int {
	if frames <= 0 {
		return 0
	}

	return (frames-1)*t.hop + t.windowLength
}

// Analyze computes the complex one-sided spectrum matrix of samples.
//
// The result is frame-major: row t holds the Bins() spectrum values of
// the frame starting at sample t*Hop(). Returns ErrShortInput when the
// input does not cover a full window.
func (t *Transform) Analyze(samples []float64) ([][]complex128, error) {
	frames := t.FrameCount(len(samples))
	if frames == 0 {
		return nil, fmt.Errorf("%w: %d samples, window %d", ErrShortInput, len(samples), t.windowLength)
	}

	bins := t.Bins()
	offset := (t.frameSize - t.windowLength) / 2
	windowed := make([]float64, t.windowLength)
	out := make([][]complex128, frames)

	for f := range frames {
		pos := f * t.hop
		vecmath.MulBlock(windowed, samples[pos:pos+t.windowLength], t.coeffs)

		for i := range t.frame {
			t.frame[i] = 0
		}

		for i, v := range windowed {
			t.frame[offset+i] = complex(v, 0)
		}

		err := t.plan.Forward(t.frame, t.frame)
		if err != nil {
			return nil, fmt.Errorf("stft: forward FFT failed: %w", err)
		}

		row := make([]complex128, bins)
		copy(row, t.frame[:bins])
		out[f] = row
	}

	return out, nil
}

// Synthesize reconstructs a time-domain signal from a frame-major
// one-sided spectrum matrix produced by Analyze (possibly modified).
//
// The output length is OutputLength(len(spectra)); callers splicing the
// result back into a longer track must use the returned length.
func (t *Transform) Synthesize(spectra [][]complex128) ([]float64, error) {
	if len(spectra) == 0 {
		return nil, errors.New("stft: no spectra to synthesize")
	}

	bins := t.Bins()
	for f, row := range spectra {
		if len(row) != bins {
			return nil, fmt.Errorf("stft: frame %d has %d bins, want %d", f, len(row), bins)
		}
	}

	outLen := t.OutputLength(len(spectra))
	offset := (t.frameSize - t.windowLength) / 2
	out := make([]float64, outLen)
	norm := make([]float64, outLen)
	spec := make([]complex128, t.frameSize)
	half := t.frameSize / 2

	for f, row := range spectra {
		copy(spec[:bins], row)

		// Mirror for real-valued IFFT.
		spec[0] = complex(real(spec[0]), 0)

		spec[half] = complex(real(spec[half]), 0)
		for k := 1; k < half; k++ {
			v := spec[k]
			spec[t.frameSize-k] = complex(real(v), -imag(v))
		}

		err := t.plan.Inverse(t.frame, spec)
		if err != nil {
			return nil, fmt.Errorf("stft: inverse FFT failed: %w", err)
		}

		pos := f * t.hop
		for i := range t.windowLength {
			w := t.coeffs[i]
			out[pos+i] += real(t.frame[offset+i]) * w
			norm[pos+i] += w * w
		}
	}

	for i := range out {
		if norm[i] > overlapAddNormFloor {
			out[i] /= norm[i]
		}
	}

	return out, nil
}

func isPowerOf2(v int) bool {
	return v > 0 && (v&(v-1)) == 0
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
