package stft

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-voicemorph/internal/testutil"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		opts       []Option
		wantErr    bool
	}{
		{name: "valid defaults", sampleRate: 16000, wantErr: false},
		{name: "valid custom", sampleRate: 48000, opts: []Option{WithFrameSize(2048), WithHop(512)}, wantErr: false},
		{name: "invalid zero rate", sampleRate: 0, wantErr: true},
		{name: "invalid negative rate", sampleRate: -1, wantErr: true},
		{name: "invalid NaN rate", sampleRate: math.NaN(), wantErr: true},
		{name: "invalid frame size", sampleRate: 16000, opts: []Option{WithFrameSize(1000)}, wantErr: true},
		{name: "too small frame size", sampleRate: 16000, opts: []Option{WithFrameSize(32)}, wantErr: true},
		{name: "invalid hop", sampleRate: 16000, opts: []Option{WithHop(0)}, wantErr: true},
		{name: "hop beyond frame", sampleRate: 16000, opts: []Option{WithHop(2048)}, wantErr: true},
		{name: "window beyond frame", sampleRate: 16000, opts: []Option{WithWindowLength(2048)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.sampleRate, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			if tr == nil {
				t.Fatal("New() returned nil")
			}
		})
	}
}

func TestGeometry(t *testing.T) {
	tr, err := New(16000, WithFrameSize(1024), WithHop(256))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := tr.Bins(); got != 513 {
		t.Fatalf("Bins() = %d, want 513", got)
	}

	if got := tr.BinFrequency(0); got != 0 {
		t.Fatalf("BinFrequency(0) = %f, want 0", got)
	}

	if got := tr.BinFrequency(512); got != 8000 {
		t.Fatalf("BinFrequency(512) = %f, want 8000", got)
	}

	// frames = 1 + (n - window)/hop
	if got := tr.FrameCount(4800); got != 15 {
		t.Fatalf("FrameCount(4800) = %d, want 15", got)
	}

	if got := tr.FrameCount(1023); got != 0 {
		t.Fatalf("FrameCount(1023) = %d, want 0", got)
	}

	if got := tr.OutputLength(15); got != 14*256+1024 {
		t.Fatalf("OutputLength(15) = %d, want %d", got, 14*256+1024)
	}
}

func TestAnalyzeShortInput(t *testing.T) {
	tr, err := New(16000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = tr.Analyze(make([]float64, 100))
	if !errors.Is(err, ErrShortInput) {
		t.Fatalf("Analyze() error = %v, want ErrShortInput", err)
	}
}

func TestAnalyzeSineEnergyAtBin(t *testing.T) {
	const (
		sampleRate = 16000.0
		freq       = 440.0
	)

	tr, err := New(sampleRate, WithFrameSize(1024), WithHop(256))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := testutil.DeterministicSine(freq, sampleRate, 0.5, 4096)

	spectra, err := tr.Analyze(in)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(spectra) != tr.FrameCount(len(in)) {
		t.Fatalf("Analyze() frames = %d, want %d", len(spectra), tr.FrameCount(len(in)))
	}

	avg := make([]float64, tr.Bins())
	for _, row := range spectra {
		if len(row) != tr.Bins() {
			t.Fatalf("row has %d bins, want %d", len(row), tr.Bins())
		}

		for i, v := range row {
			avg[i] += math.Hypot(real(v), imag(v))
		}
	}

	peakBin := 0
	for i, v := range avg {
		if v > avg[peakBin] {
			peakBin = i
		}
	}

	wantBin := int(math.Round(freq / tr.BinHz()))
	if peakBin < wantBin-1 || peakBin > wantBin+1 {
		t.Fatalf("energy peak at bin %d, want %d +/- 1", peakBin, wantBin)
	}
}

func TestRoundTripSine(t *testing.T) {
	const sampleRate = 16000.0

	tr, err := New(sampleRate, WithFrameSize(1024), WithHop(256))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := testutil.DeterministicSine(440, sampleRate, 0.5, 4096)

	spectra, err := tr.Analyze(in)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	out, err := tr.Synthesize(spectra)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(out) != tr.OutputLength(len(spectra)) {
		t.Fatalf("Synthesize() length = %d, want %d", len(out), tr.OutputLength(len(spectra)))
	}

	testutil.RequireFinite(t, out)

	// Compare away from the first/last window.
	lo := tr.WindowLength()
	hi := len(out) - tr.WindowLength()

	rmsErr, err := testutil.RMSDiff(out[lo:hi], in[lo:hi])
	if err != nil {
		t.Fatalf("RMSDiff() error = %v", err)
	}

	if ref := testutil.RMS(in[lo:hi]); rmsErr > 0.01*ref {
		t.Fatalf("round trip RMS error = %v, want < 1%% of %v", rmsErr, ref)
	}
}

func TestRoundTripNoise(t *testing.T) {
	tr, err := New(48000, WithFrameSize(512), WithHop(128))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := testutil.DeterministicNoise(7, 0.8, 2048)

	spectra, err := tr.Analyze(in)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	out, err := tr.Synthesize(spectra)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	lo := tr.WindowLength()
	hi := len(out) - tr.WindowLength()
	testutil.RequireSliceNearlyEqual(t, out[lo:hi], in[lo:hi], 1e-6)
}

func TestSynthesizeValidatesShape(t *testing.T) {
	tr, err := New(16000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := tr.Synthesize(nil); err == nil {
		t.Fatal("expected error for empty spectra")
	}

	bad := [][]complex128{make([]complex128, 10)}
	if _, err := tr.Synthesize(bad); err == nil {
		t.Fatal("expected error for wrong bin count")
	}
}
