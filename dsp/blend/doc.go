// Package blend splices edited audio regions back into their
// surrounding track without audible discontinuities.
package blend
