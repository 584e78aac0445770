// Package vocoder decomposes a mono voice signal into pitch contour,
// spectral envelope, and aperiodicity, and resynthesizes audio after
// independent modification of those features.
//
// The analysis/synthesis pair is treated as an opaque engine: the
// modification layer (pitch shift, envelope warp, time stretch) never
// inspects its internals and works on any frame-aligned Features
// triple. Presets are fixed parameter bundles over that layer, not new
// algorithms.
package vocoder
