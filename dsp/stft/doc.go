// Package stft provides a short-time Fourier transform analysis/synthesis
// pair for bounded mono buffers.
//
// The framing convention is uncentered: frame t covers samples
// [t*hop, t*hop+windowLength), and the frame count for an input of n
// samples is 1 + (n-windowLength)/hop. Synthesis uses weighted
// overlap-add with window-squared normalization, so
// Synthesize(Analyze(x)) reconstructs x away from the first and last
// window regardless of the hop/window ratio.
package stft
