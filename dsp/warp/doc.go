// Package warp remaps spectral curves along the frequency axis.
//
// SampleCurve is the shared fractional-resampling primitive; Magnitude
// applies it with the formant-shift policy: bins above the cutoff pass
// through untouched, bins whose source frequency falls outside the
// warpable band receive no energy, and everything else is a continuous
// monotonic stretch or compression of the frequency axis.
package warp
