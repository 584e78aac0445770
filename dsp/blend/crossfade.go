package blend

import (
	"errors"
	"fmt"
	"math"
)

// ErrLengthMismatch indicates original and shifted buffers of different length.
var ErrLengthMismatch = errors.New("blend: original and shifted lengths differ")

// Crossfade merges shifted into original over symmetric raised-cosine
// fade regions of fadeLen samples at both ends.
//
// The first and last output samples equal original exactly, the
// interior is shifted verbatim, and the fade regions interpolate
// smoothly between the two. fadeLen is clamped to half the buffer
// length; fadeLen <= 0 returns a plain copy of shifted. Both inputs
// must have the same length.
func Crossfade(original, shifted []float64, fadeLen int) ([]float64, error) {
	if len(original) != len(shifted) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(original), len(shifted))
	}

	n := len(original)
	out := make([]float64, n)
	copy(out, shifted)

	if fadeLen > n/2 {
		fadeLen = n / 2
	}

	if fadeLen <= 0 {
		return out, nil
	}

	// A one-sample ramp cannot be 0 at its start and 1 at its end.
	if fadeLen == 1 {
		out[0] = original[0]
		out[n-1] = original[n-1]

		return out, nil
	}

	fadeIn, fadeOut := fadeRamps(fadeLen)

	for i := range fadeLen {
		out[i] = original[i]*fadeOut[i] + shifted[i]*fadeIn[i]
	}

	for i := range fadeLen {
		j := n - fadeLen + i
		out[j] = shifted[j]*fadeOut[i] + original[j]*fadeIn[i]
	}

	return out, nil
}

// fadeRamps builds complementary raised-cosine ramps. fadeIn rises from
// exactly 0 to exactly 1; fadeOut is its complement.
func fadeRamps(length int) (fadeIn, fadeOut []float64) {
	fadeIn = make([]float64, length)
	fadeOut = make([]float64, length)

	for i := range length {
		t := float64(i) / float64(length-1)
		in := 0.5 - 0.5*math.Cos(math.Pi*t)
		fadeIn[i] = in
		fadeOut[i] = 1 - in
	}

	return fadeIn, fadeOut
}
