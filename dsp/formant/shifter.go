package formant

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-voicemorph/dsp/blend"
	"github.com/cwbudde/algo-voicemorph/dsp/stft"
	"github.com/cwbudde/algo-voicemorph/dsp/warp"
)

const (
	defaultMaxFreq    = 4000.0
	identityAlphaEps  = 1e-9
	defaultFadeLength = 128
)

// ErrInvalidSegment indicates segment boundaries that are empty or out
// of range for the given waveform.
var ErrInvalidSegment = errors.New("formant: invalid segment")

// Segment describes one phoneme-labeled region of a waveform as a
// half-open time interval in seconds.
type Segment struct {
	Start   float64
	End     float64
	Phoneme string
}

// Shifter applies per-vowel formant warps to labeled segments.
//
// Configuration is bound once at construction. A Shifter holds no
// per-call state beyond its embedded transform's scratch buffers, so a
// single instance must not be used concurrently.
type Shifter struct {
	sampleRate float64
	maxFreq    float64
	table      AlphaTable
	alphaScale float64

	frameSize    int
	hop          int
	windowLength int

	transform *stft.Transform
}

// Option configures a Shifter at construction time.
type Option func(*Shifter)

// WithFrameSize sets the FFT frame size.
func WithFrameSize(size int) Option {
	return func(s *Shifter) {
		s.frameSize = size
	}
}

// WithHop sets the analysis hop in samples.
func WithHop(hop int) Option {
	return func(s *Shifter) {
		s.hop = hop
	}
}

// WithWindowLength sets the analysis window length in samples.
func WithWindowLength(length int) Option {
	return func(s *Shifter) {
		s.windowLength = length
	}
}

// WithMaxFrequency sets the warpable band ceiling in Hz. Bins above it
// are never modified.
func WithMaxFrequency(hz float64) Option {
	return func(s *Shifter) {
		s.maxFreq = hz
	}
}

// WithAlphaTable replaces the built-in vowel warp table.
func WithAlphaTable(t AlphaTable) Option {
	return func(s *Shifter) {
		s.table = t
	}
}

// WithAlphaScale multiplies every table entry by m, exaggerating or
// softening the overall shift strength.
func WithAlphaScale(m float64) Option {
	return func(s *Shifter) {
		s.alphaScale = m
	}
}

// NewShifter creates a segment formant shifter bound to sampleRate.
// Defaults: frame 1024, hop 256, window 1024, max frequency 4 kHz,
// built-in vowel table.
func NewShifter(sampleRate float64, opts ...Option) (*Shifter, error) {
	s := &Shifter{
		sampleRate: sampleRate,
		maxFreq:    defaultMaxFreq,
		frameSize:  1024,
		hop:        256,
		alphaScale: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.windowLength == 0 {
		s.windowLength = s.frameSize
	}

	if s.maxFreq <= 0 || math.IsNaN(s.maxFreq) || math.IsInf(s.maxFreq, 0) {
		return nil, fmt.Errorf("formant: max frequency must be positive and finite: %f", s.maxFreq)
	}

	if s.alphaScale <= 0 || math.IsNaN(s.alphaScale) || math.IsInf(s.alphaScale, 0) {
		return nil, fmt.Errorf("formant: alpha scale must be positive and finite: %f", s.alphaScale)
	}

	if s.table == nil {
		s.table = DefaultAlphaTable()
	}

	if s.alphaScale != 1 {
		s.table = s.table.Scaled(s.alphaScale)
	}

	transform, err := stft.New(sampleRate,
		stft.WithFrameSize(s.frameSize),
		stft.WithHop(s.hop),
		stft.WithWindowLength(s.windowLength),
	)
	if err != nil {
		return nil, err
	}

	s.transform = transform

	return s, nil
}

// SampleRate returns the configured sample rate in Hz.
func (s *Shifter) SampleRate() float64 { return s.sampleRate }

// MaxFrequency returns the warpable band ceiling in Hz.
func (s *Shifter) MaxFrequency() float64 { return s.maxFreq }

// Table returns the active phoneme warp table.
func (s *Shifter) Table() AlphaTable { return s.table }

// Transform returns the underlying STFT pair, exposing the bin geometry.
func (s *Shifter) Transform() *stft.Transform { return s.transform }

// segmentBounds converts seg to sample indices and validates them
// against the waveform length.
func (s *Shifter) segmentBounds(seg Segment, n int) (start, end int, err error) {
	start = int(seg.Start * s.sampleRate)
	end = int(seg.End * s.sampleRate)

	if start < 0 || end > n || end <= start {
		return 0, 0, fmt.Errorf("%w: samples [%d, %d) of %d", ErrInvalidSegment, start, end, n)
	}

	return start, end, nil
}

// ShiftSegment warps the formants of one labeled segment and returns
// the modified sub-array.
//
// The result length follows the STFT framing of the segment and may be
// slightly shorter than the input slice; callers must use the returned
// length when writing back. The source waveform is never modified.
// Unknown phoneme labels warp with alpha 1 (an effective pass-through);
// empty, out-of-range, or shorter-than-window segments fail with
// ErrInvalidSegment.
func (s *Shifter) ShiftSegment(samples []float64, seg Segment) ([]float64, error) {
	start, end, err := s.segmentBounds(seg, len(samples))
	if err != nil {
		return nil, err
	}

	if end-start < s.windowLength {
		return nil, fmt.Errorf("%w: %d samples shorter than analysis window %d",
			ErrInvalidSegment, end-start, s.windowLength)
	}

	alpha := s.table.Alpha(seg.Phoneme)

	spectra, err := s.transform.Analyze(samples[start:end])
	if err != nil {
		return nil, err
	}

	// Polar split: the phase stays untouched through the warp.
	mag := make([][]float64, len(spectra))
	phase := make([][]float64, len(spectra))

	for f, row := range spectra {
		mag[f] = spectrum.Magnitude(row)

		ph := make([]float64, len(row))
		for i, v := range row {
			ph[i] = cmplx.Phase(v)
		}

		phase[f] = ph
	}

	warped, err := warp.Magnitude(mag, alpha, s.maxFreq, s.transform.BinHz())
	if err != nil {
		return nil, err
	}

	for f, row := range spectra {
		for i := range row {
			row[i] = cmplx.Rect(warped[f][i], phase[f][i])
		}
	}

	return s.transform.Synthesize(spectra)
}

// Apply shifts every segment of a track and splices the results back
// through crossfades, returning a new track of identical length.
//
// Segments whose label resolves to alpha 1 are skipped: their audio
// would round-trip unchanged. Shifted segments are length-aligned to
// the original region by truncation, padding any remainder with the
// original tail, then crossfaded over fadeLen samples. The input is
// never modified.
func (s *Shifter) Apply(samples []float64, segments []Segment, fadeLen int) ([]float64, error) {
	if fadeLen < 0 {
		fadeLen = defaultFadeLength
	}

	out := make([]float64, len(samples))
	copy(out, samples)

	for _, seg := range segments {
		start, end, err := s.segmentBounds(seg, len(samples))
		if err != nil {
			return nil, err
		}

		if math.Abs(s.table.Alpha(seg.Phoneme)-1) <= identityAlphaEps {
			continue
		}

		shifted, err := s.ShiftSegment(out, seg)
		if err != nil {
			return nil, err
		}

		region := out[start:end]

		aligned := make([]float64, len(region))
		n := copy(aligned, shifted)
		copy(aligned[n:], region[n:])

		blended, err := blend.Crossfade(region, aligned, fadeLen)
		if err != nil {
			return nil, err
		}

		copy(region, blended)
	}

	return out, nil
}
