// Package conv provides checked integer conversions and arithmetic.
//
// Every length, offset, count and document id read back from a segment file
// is untrusted until it has passed through one of these helpers. Values whose
// range is guaranteed by construction (loop indices, sizes of in-memory
// slices) use direct casts instead.
package conv
