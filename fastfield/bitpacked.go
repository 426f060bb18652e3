package fastfield

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"math"
	"math/bits"

	"github.com/hupe1980/lexseg/internal/conv"
)

// bitpackedFooterSize is min (8) + max (8) + num_vals (8).
const bitpackedFooterSize = 24

// BitpackedReader reads a bit-packed column.
type BitpackedReader struct {
	words    []byte // packed little-endian words, including one padding word
	numBits  uint64
	mask     uint64
	minValue uint64
	maxValue uint64
	numVals  uint32
}

var _ Reader = (*BitpackedReader)(nil)

// numBitsFor returns the bit width needed to store values in [0, amplitude].
func numBitsFor(amplitude uint64) uint64 {
	return uint64(bits.Len64(amplitude))
}

// packedWords returns the number of 64-bit words for numVals values of
// numBits each, plus one padding word so that Get can always read two words.
func packedWords(numVals, numBits uint64) uint64 {
	return (numVals*numBits+63)/64 + 1
}

// bitpackedSize returns the body size in bytes of a bit-packed column.
func bitpackedSize(numVals, amplitude uint64) uint64 {
	return packedWords(numVals, numBitsFor(amplitude))*8 + bitpackedFooterSize
}

// OpenBitpacked opens a bit-packed body. It matches OpenFunc.
func OpenBitpacked(data []byte) (*BitpackedReader, error) {
	if len(data) < bitpackedFooterSize {
		return nil, &DecodeError{Codec: CodecBitpacked, Err: fmt.Errorf("%w: %d bytes, need %d", ErrShortBuffer, len(data), bitpackedFooterSize)}
	}
	footer := data[len(data)-bitpackedFooterSize:]
	minValue := binary.LittleEndian.Uint64(footer[0:8])
	maxValue := binary.LittleEndian.Uint64(footer[8:16])
	rawNumVals := binary.LittleEndian.Uint64(footer[16:24])

	if maxValue < minValue {
		return nil, &DecodeError{Codec: CodecBitpacked, Err: fmt.Errorf("%w: max %d < min %d", ErrCorrupt, maxValue, minValue)}
	}
	numVals, err := conv.Uint64ToUint32(rawNumVals)
	if err != nil {
		return nil, &DecodeError{Codec: CodecBitpacked, Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}

	numBits := numBitsFor(maxValue - minValue)
	want := packedWords(uint64(numVals), numBits) * 8
	body := data[:len(data)-bitpackedFooterSize]
	if uint64(len(body)) != want {
		return nil, &DecodeError{Codec: CodecBitpacked, Err: fmt.Errorf("%w: body is %d bytes, want %d", ErrCorrupt, len(body), want)}
	}

	mask := uint64(math.MaxUint64)
	if numBits < 64 {
		mask = 1<<numBits - 1
	}

	return &BitpackedReader{
		words:    body,
		numBits:  numBits,
		mask:     mask,
		minValue: minValue,
		maxValue: maxValue,
		numVals:  numVals,
	}, nil
}

// Get returns the value of doc.
func (r *BitpackedReader) Get(doc uint32) uint64 {
	if doc >= r.numVals {
		panic(fmt.Sprintf("fastfield: doc %d out of range [0, %d)", doc, r.numVals))
	}
	if r.numBits == 0 {
		return r.minValue
	}
	bitPos := uint64(doc) * r.numBits
	off := (bitPos >> 6) << 3
	shift := bitPos & 63

	v := binary.LittleEndian.Uint64(r.words[off:]) >> shift
	if shift+r.numBits > 64 {
		v |= binary.LittleEndian.Uint64(r.words[off+8:]) << (64 - shift)
	}
	return r.minValue + v&r.mask
}

// MinValue returns the smallest value of the column.
func (r *BitpackedReader) MinValue() uint64 { return r.minValue }

// MaxValue returns the largest value of the column.
func (r *BitpackedReader) MaxValue() uint64 { return r.maxValue }

// NumVals returns the number of documents in the column.
func (r *BitpackedReader) NumVals() uint32 { return r.numVals }

// NumBits returns the bit width of each stored value.
func (r *BitpackedReader) NumBits() int { return int(r.numBits) }

// writeBitpacked packs numVals values from seq, all within [minValue, maxValue].
func writeBitpacked(w io.Writer, values iter.Seq[uint64], numVals uint32, minValue, maxValue uint64) error {
	numBits := numBitsFor(maxValue - minValue)
	nwords := packedWords(uint64(numVals), numBits)
	buf := make([]byte, nwords*8+bitpackedFooterSize)

	if numBits > 0 {
		words := make([]uint64, nwords)
		var bitPos uint64
		var count uint32
		for v := range values {
			if count == numVals {
				return fmt.Errorf("fastfield: more than %d values", numVals)
			}
			if v < minValue || v > maxValue {
				return fmt.Errorf("fastfield: value %d outside [%d, %d]", v, minValue, maxValue)
			}
			d := v - minValue
			i := bitPos >> 6
			shift := bitPos & 63
			words[i] |= d << shift
			if shift+numBits > 64 {
				words[i+1] |= d >> (64 - shift)
			}
			bitPos += numBits
			count++
		}
		if count != numVals {
			return fmt.Errorf("fastfield: got %d values, want %d", count, numVals)
		}
		for i, word := range words {
			binary.LittleEndian.PutUint64(buf[i*8:], word)
		}
	}

	footer := buf[nwords*8:]
	binary.LittleEndian.PutUint64(footer[0:8], minValue)
	binary.LittleEndian.PutUint64(footer[8:16], maxValue)
	binary.LittleEndian.PutUint64(footer[16:24], uint64(numVals))

	_, err := w.Write(buf)
	return err
}
