// Package fastfield implements the columnar encoding of per-document uint64
// values ("fast fields").
//
// A column is stored as a one-byte codec identifier followed by the codec
// body. Two codecs exist:
//
//   - Bitpacked stores v-min for every document with the minimal bit width
//     bits.Len64(max-min), followed by a 24-byte footer (min, max, num_vals).
//   - GCD factors out both the minimum and the greatest common divisor of
//     v-min. The quotients (v-min)/gcd are bit-packed and a 16-byte footer
//     (gcd, min_value) is appended after the bit-packed body.
//
// All fixed-width integers are little-endian.
//
// # GCD Footer
//
//	offset from end   field
//	-16 .. -8         gcd
//	 -8 ..  0         min_value
//
// A value is reconstructed as min_value + gcd*q where q is the value stored by
// the inner codec. The GCD codec is generic over its inner reader (see
// GCDReader and OpenGCD); Open wires it to the bit-packed codec.
//
// # Codec Selection
//
// Serialize computes min, max and FindGCD over v-min and picks the GCD codec
// only when its encoded size is strictly smaller than plain bit-packing.
package fastfield
