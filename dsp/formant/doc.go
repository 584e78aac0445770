// Package formant shifts vowel formants in labeled segments of a mono
// track using frequency-domain magnitude warping.
//
// The phase of each analysis frame is never modified: only the
// magnitude spectrum is warped, which alters timbre while preserving
// pitch and timing cues. Segment boundaries and phoneme labels come
// from an external aligner.
package formant
