package conv

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// ErrOverflow is returned when a conversion or arithmetic result does not fit
// the target type.
var ErrOverflow = errors.New("integer overflow")

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %d cannot be converted to uint32 (negative)", ErrOverflow, v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d cannot be converted to uint32 (too large)", ErrOverflow, v)
	}
	return uint32(v), nil
}

// IntToUint16 converts int to uint16 safely.
func IntToUint16(v int) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d cannot be converted to uint16", ErrOverflow, v)
	}
	return uint16(v), nil
}

// Uint64ToInt converts uint64 to int safely.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d cannot be converted to int (too large)", ErrOverflow, v)
	}
	return int(v), nil
}

// Uint64ToUint32 converts uint64 to uint32 safely.
func Uint64ToUint32(v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d cannot be converted to uint32 (too large)", ErrOverflow, v)
	}
	return uint32(v), nil
}

// Int64ToInt converts int64 to a non-negative int safely.
func Int64ToInt(v int64) (int, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %d cannot be converted to int (negative)", ErrOverflow, v)
	}
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d cannot be converted to int (too large)", ErrOverflow, v)
	}
	return int(v), nil
}

// MulAdd returns a*b + c, or ErrOverflow if the result exceeds uint64.
func MulAdd(a, b, c uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d*%d+%d", ErrOverflow, a, b, c)
	}
	sum, carry := bits.Add64(lo, c, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d*%d+%d", ErrOverflow, a, b, c)
	}
	return sum, nil
}

// SliceEnd returns off+n as an int, checking it stays within limit.
// It is used to validate (offset, length) pairs decoded from disk.
func SliceEnd(off, n uint64, limit int) (int, error) {
	end, carry := bits.Add64(off, n, 0)
	if carry != 0 || end > uint64(limit) {
		return 0, fmt.Errorf("%w: range [%d, %d+%d) exceeds %d", ErrOverflow, off, off, n, limit)
	}
	return int(end), nil
}
