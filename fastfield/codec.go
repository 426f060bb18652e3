package fastfield

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/lexseg/internal/conv"
)

// gcdFooterSize is the size of the (gcd, min_value) trailer.
const gcdFooterSize = 16

// Reader is the read capability of a column codec.
//
// MinValue and MaxValue bound every value the reader returns. Get panics for
// doc >= NumVals().
type Reader interface {
	Get(doc uint32) uint64
	MinValue() uint64
	MaxValue() uint64
	NumVals() uint32
}

// OpenFunc opens a codec body. Implementations must not retain data beyond the
// lifetime the caller guarantees for it (typically a memory mapping).
type OpenFunc[R Reader] func(data []byte) (R, error)

// GCDReader reads a column written with the GCD codec.
// It wraps an inner reader whose values live in the quotient space.
type GCDReader[R Reader] struct {
	gcd      uint64
	minValue uint64
	inner    R
}

var _ Reader = (*GCDReader[*BitpackedReader])(nil)

// OpenGCD splits the 16-byte footer off data and opens the inner reader over
// the remaining prefix.
func OpenGCD[R Reader](data []byte, open OpenFunc[R]) (*GCDReader[R], error) {
	if len(data) < gcdFooterSize {
		return nil, &DecodeError{Codec: CodecGCD, Err: fmt.Errorf("%w: %d bytes, need %d", ErrShortBuffer, len(data), gcdFooterSize)}
	}
	footerOffset := len(data) - gcdFooterSize
	body, footer := data[:footerOffset], data[footerOffset:]

	gcd := binary.LittleEndian.Uint64(footer[0:8])
	minValue := binary.LittleEndian.Uint64(footer[8:16])
	if gcd == 0 {
		return nil, &DecodeError{Codec: CodecGCD, Err: fmt.Errorf("%w: zero gcd", ErrCorrupt)}
	}

	inner, err := open(body)
	if err != nil {
		return nil, &DecodeError{Codec: CodecGCD, Err: err}
	}

	// Every stored quotient is <= inner.MaxValue(), so this bounds all Gets.
	if _, err := conv.MulAdd(inner.MaxValue(), gcd, minValue); err != nil {
		return nil, &DecodeError{Codec: CodecGCD, Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}

	return &GCDReader[R]{
		gcd:      gcd,
		minValue: minValue,
		inner:    inner,
	}, nil
}

// Get returns the value of doc.
func (r *GCDReader[R]) Get(doc uint32) uint64 {
	return r.inner.Get(doc)*r.gcd + r.minValue
}

// MinValue returns the smallest value of the column.
func (r *GCDReader[R]) MinValue() uint64 {
	return r.minValue + r.inner.MinValue()*r.gcd
}

// MaxValue returns the largest value of the column.
func (r *GCDReader[R]) MaxValue() uint64 {
	return r.minValue + r.inner.MaxValue()*r.gcd
}

// NumVals returns the number of documents in the column.
func (r *GCDReader[R]) NumVals() uint32 { return r.inner.NumVals() }

// GCD returns the divisor factored out of the column.
func (r *GCDReader[R]) GCD() uint64 { return r.gcd }

// Base returns the offset subtracted before division.
func (r *GCDReader[R]) Base() uint64 { return r.minValue }

// Inner returns the wrapped quotient reader.
func (r *GCDReader[R]) Inner() R { return r.inner }

// WriteGCDFooter writes the GCD footer. It must follow the inner codec body.
// The field order (gcd, then min_value) is part of the format.
func WriteGCDFooter(w io.Writer, minValue, gcd uint64) error {
	var buf [gcdFooterSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], gcd)
	binary.LittleEndian.PutUint64(buf[8:16], minValue)
	_, err := w.Write(buf[:])
	return err
}
