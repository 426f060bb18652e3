package fastdiv

import (
	"math"
	"math/bits"
)

// Divider divides uint64 values by a fixed non-zero divisor.
// The zero value is not usable; construct with New.
type Divider struct {
	d  uint64
	hi uint64 // high word of ceil(2^128 / d)
	lo uint64 // low word of ceil(2^128 / d)
}

// New returns a Divider for d. It panics if d is zero.
func New(d uint64) Divider {
	if d == 0 {
		panic("fastdiv: division by zero")
	}
	if d == 1 {
		// ceil(2^128 / 1) does not fit in 128 bits.
		return Divider{d: 1}
	}

	// floor((2^128 - 1) / d) by two-step long division, then +1.
	hi, r := bits.Div64(0, math.MaxUint64, d)
	lo, _ := bits.Div64(r, math.MaxUint64, d)

	var carry uint64
	lo, carry = bits.Add64(lo, 1, 0)
	hi += carry

	return Divider{d: d, hi: hi, lo: lo}
}

// Divisor returns the divisor this Divider was built for.
func (v Divider) Divisor() uint64 { return v.d }

// Div returns n / d.
func (v Divider) Div(n uint64) uint64 {
	if v.d == 1 {
		return n
	}
	// Top word of (hi:lo) * n.
	h1, _ := bits.Mul64(v.lo, n)
	h2, l2 := bits.Mul64(v.hi, n)
	_, carry := bits.Add64(l2, h1, 0)
	return h2 + carry
}

// Mod returns n % d.
func (v Divider) Mod(n uint64) uint64 {
	return n - v.Div(n)*v.d
}

// DivMod returns n / d and n % d.
func (v Divider) DivMod(n uint64) (q, r uint64) {
	q = v.Div(n)
	return q, n - q*v.d
}
