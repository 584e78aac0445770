package blend

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-voicemorph/internal/testutil"
)

func TestCrossfadeLengthMismatch(t *testing.T) {
	_, err := Crossfade(make([]float64, 10), make([]float64, 9), 2)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("Crossfade() error = %v, want ErrLengthMismatch", err)
	}
}

func TestCrossfadeBoundaryContinuity(t *testing.T) {
	original := testutil.DeterministicSine(200, 16000, 1, 1000)
	shifted := testutil.DeterministicSine(300, 16000, 0.7, 1000)

	out, err := Crossfade(original, shifted, 64)
	if err != nil {
		t.Fatalf("Crossfade() error = %v", err)
	}

	if out[0] != original[0] {
		t.Fatalf("out[0] = %v, want original[0] = %v", out[0], original[0])
	}

	if out[len(out)-1] != original[len(original)-1] {
		t.Fatalf("out[last] = %v, want original[last] = %v", out[len(out)-1], original[len(original)-1])
	}

	mid := len(out) / 2
	if out[mid] != shifted[mid] {
		t.Fatalf("out[mid] = %v, want shifted[mid] = %v", out[mid], shifted[mid])
	}
}

func TestCrossfadeInteriorIsShifted(t *testing.T) {
	original := make([]float64, 100)
	shifted := testutil.DeterministicNoise(3, 1, 100)

	const fade = 10

	out, err := Crossfade(original, shifted, fade)
	if err != nil {
		t.Fatalf("Crossfade() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, out[fade:100-fade], shifted[fade:100-fade], 0)
}

func TestCrossfadeFadeMonotonicBlend(t *testing.T) {
	// Original all zeros, shifted all ones: the head must rise from 0
	// toward 1 and the tail fall back without overshoot.
	original := make([]float64, 64)
	shifted := make([]float64, 64)
	for i := range shifted {
		shifted[i] = 1
	}

	out, err := Crossfade(original, shifted, 16)
	if err != nil {
		t.Fatalf("Crossfade() error = %v", err)
	}

	for i := range out {
		if out[i] < 0 || out[i] > 1 {
			t.Fatalf("index %d: %v outside [0, 1]", i, out[i])
		}
	}

	for i := 1; i < 16; i++ {
		if out[i] < out[i-1] {
			t.Fatalf("head not monotonic at %d: %v < %v", i, out[i], out[i-1])
		}
	}

	for i := 49; i < 64; i++ {
		if out[i] > out[i-1] {
			t.Fatalf("tail not monotonic at %d: %v > %v", i, out[i], out[i-1])
		}
	}
}

func TestCrossfadeClampsOversizedFade(t *testing.T) {
	original := testutil.DeterministicSine(100, 8000, 1, 50)
	shifted := testutil.DeterministicSine(150, 8000, 1, 50)

	out, err := Crossfade(original, shifted, 1000000)
	if err != nil {
		t.Fatalf("Crossfade() error = %v", err)
	}

	if len(out) != 50 {
		t.Fatalf("length = %d, want 50", len(out))
	}

	if out[0] != original[0] || out[49] != original[49] {
		t.Fatal("clamped fade lost boundary continuity")
	}
}

func TestCrossfadeZeroFadeCopiesShifted(t *testing.T) {
	original := make([]float64, 20)
	shifted := testutil.DeterministicNoise(5, 1, 20)

	out, err := Crossfade(original, shifted, 0)
	if err != nil {
		t.Fatalf("Crossfade() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, out, shifted, 0)

	out[0] = 42
	if shifted[0] == 42 {
		t.Fatal("output aliases the shifted input")
	}
}

func TestCrossfadeTinyBuffers(t *testing.T) {
	for n := 1; n <= 4; n++ {
		original := make([]float64, n)
		shifted := make([]float64, n)
		for i := range original {
			original[i] = 1
			shifted[i] = -1
		}

		out, err := Crossfade(original, shifted, 8)
		if err != nil {
			t.Fatalf("n=%d: Crossfade() error = %v", n, err)
		}

		if len(out) != n {
			t.Fatalf("n=%d: length = %d", n, len(out))
		}
	}
}
