// Package fastdiv replaces repeated division by the same uint64 divisor with
// a multiply by a precomputed 128-bit reciprocal.
//
// The reciprocal is c = ceil(2^128 / d). For any n < 2^64 the quotient is the
// top 64 bits of the 192-bit product c*n, which is exact because
// c*d - 2^128 < d <= 2^64 (Lemire, Kaser, Kurz: "Faster Remainder by Direct
// Computation", 2019). The hot path therefore only uses bits.Mul64.
//
//	d := fastdiv.New(7)
//	q := d.Div(100)  // 14
//	r := d.Mod(100)  // 2
package fastdiv
