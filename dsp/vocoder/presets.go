package vocoder

import "fmt"

// Preset is a named voice-transformation parameter bundle. Presets are
// configuration over the modification primitives, not new algorithms.
type Preset struct {
	Name           string
	PitchSemitones float64
	FormantRatio   float64
	StretchRate    float64
}

// Built-in presets, matching the classic gender/age transformations.
var (
	PresetMaleToFemale = Preset{Name: "male-to-female", PitchSemitones: 8, FormantRatio: 1.15, StretchRate: 1}
	PresetFemaleToMale = Preset{Name: "female-to-male", PitchSemitones: -8, FormantRatio: 0.88, StretchRate: 1}
	PresetOlder        = Preset{Name: "older", PitchSemitones: -2, FormantRatio: 1, StretchRate: 0.85}
	PresetYounger      = Preset{Name: "younger", PitchSemitones: 3, FormantRatio: 1, StretchRate: 1.15}
)

// Presets returns the built-in presets.
func Presets() []Preset {
	return []Preset{PresetMaleToFemale, PresetFemaleToMale, PresetOlder, PresetYounger}
}

// Transformer applies preset voice transformations end to end:
// decompose, modify pitch and envelope, resynthesize, time-stretch.
type Transformer struct {
	dec *Decomposer
}

// NewTransformer creates a Transformer bound to sampleRate. The options
// configure the underlying Decomposer.
func NewTransformer(sampleRate float64, opts ...Option) (*Transformer, error) {
	dec, err := NewDecomposer(sampleRate, opts...)
	if err != nil {
		return nil, err
	}

	return &Transformer{dec: dec}, nil
}

// Decomposer returns the underlying analysis/synthesis engine.
func (t *Transformer) Decomposer() *Decomposer { return t.dec }

// Transform applies a preset to samples and returns the transformed
// waveform. Identity steps (0 semitones, ratio 1, rate 1) are skipped.
func (t *Transformer) Transform(samples []float64, p Preset) ([]float64, error) {
	feats, err := t.dec.Decompose(samples)
	if err != nil {
		return nil, err
	}

	if p.PitchSemitones != 0 {
		feats.ShiftPitch(p.PitchSemitones)
	}

	if p.FormantRatio > 0 && p.FormantRatio != 1 {
		err = feats.WarpEnvelope(p.FormantRatio)
		if err != nil {
			return nil, fmt.Errorf("vocoder: preset %q: %w", p.Name, err)
		}
	}

	out, err := t.dec.Resynthesize(feats)
	if err != nil {
		return nil, err
	}

	if p.StretchRate > 0 && p.StretchRate != 1 {
		out, err = Stretch(out, p.StretchRate)
		if err != nil {
			return nil, fmt.Errorf("vocoder: preset %q: %w", p.Name, err)
		}
	}

	return out, nil
}
