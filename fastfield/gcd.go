package fastfield

import (
	"iter"

	"github.com/hupe1980/lexseg/internal/fastdiv"
)

// computeGCD returns the greatest common divisor of two non-zero numbers.
// Feeding large >= small saves one iteration but is not required.
func computeGCD(large, small uint64) uint64 {
	for {
		rem := large % small
		if rem == 0 {
			return small
		}
		large, small = small, rem
	}
}

// FindGCD returns the greatest common divisor of all non-zero values.
//
// Zero values are treated as absent and skipped. ok is false when the sequence
// holds no non-zero value; callers must tell that case apart from a gcd of 1,
// which means a divisor was found but factoring it out is pointless.
func FindGCD(values iter.Seq[uint64]) (gcd uint64, ok bool) {
	var div fastdiv.Divider
	for v := range values {
		if v == 0 {
			continue
		}
		if !ok {
			gcd, ok = v, true
			if gcd == 1 {
				return 1, true
			}
			div = fastdiv.New(gcd)
			continue
		}
		if div.Mod(v) == 0 {
			continue
		}
		gcd = computeGCD(v, gcd)
		if gcd == 1 {
			return 1, true
		}
		div = fastdiv.New(gcd)
	}
	return gcd, ok
}
