package fastfield

import (
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/lexseg/internal/conv"
	"github.com/hupe1980/lexseg/internal/fastdiv"
)

// CodecType identifies the encoding of a column. It is the first byte of
// every serialized column.
type CodecType uint8

const (
	// CodecBitpacked stores v-min with a fixed bit width.
	CodecBitpacked CodecType = 1
	// CodecGCD stores (v-min)/gcd bit-packed, followed by the GCD footer.
	CodecGCD CodecType = 4
)

func (c CodecType) String() string {
	switch c {
	case CodecBitpacked:
		return "bitpacked"
	case CodecGCD:
		return "gcd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodecType parses a codec name as returned by String.
func ParseCodecType(name string) (CodecType, error) {
	switch name {
	case "bitpacked":
		return CodecBitpacked, nil
	case "gcd":
		return CodecGCD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Column is an opened column of any codec.
type Column = Reader

type serializeOptions struct {
	codecs []CodecType
}

// SerializeOption configures Serialize.
type SerializeOption func(*serializeOptions)

// WithCodecs restricts the codecs Serialize may choose from.
// Bit-packing stays available as the fallback when no listed codec applies.
func WithCodecs(codecs ...CodecType) SerializeOption {
	return func(o *serializeOptions) {
		o.codecs = codecs
	}
}

// Estimate describes the encoded size of a column under one codec.
type Estimate struct {
	Codec CodecType
	Bytes uint64
	GCD   uint64
}

// Stats holds the value range of a column.
type Stats struct {
	Min     uint64
	Max     uint64
	NumVals uint32
}

// ComputeStats scans values for their range.
func ComputeStats(values []uint64) (Stats, error) {
	n, err := conv.IntToUint32(len(values))
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrTooManyValues, err)
	}
	if n == 0 {
		return Stats{}, nil
	}
	return Stats{Min: slices.Min(values), Max: slices.Max(values), NumVals: n}, nil
}

// Plan computes the candidate encodings of values and returns the smallest
// enabled one. The bit-packed estimate is always the first candidate.
func Plan(values []uint64, opts ...SerializeOption) (Estimate, Stats, error) {
	o := serializeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	stats, err := ComputeStats(values)
	if err != nil {
		return Estimate{}, Stats{}, err
	}

	best := Estimate{
		Codec: CodecBitpacked,
		Bytes: 1 + bitpackedSize(uint64(stats.NumVals), stats.Max-stats.Min),
	}

	if enabled(o.codecs, CodecGCD) {
		gcd, ok := FindGCD(func(yield func(uint64) bool) {
			for _, v := range values {
				if !yield(v - stats.Min) {
					return
				}
			}
		})
		if ok && gcd > 1 {
			size := 1 + bitpackedSize(uint64(stats.NumVals), (stats.Max-stats.Min)/gcd) + gcdFooterSize
			if size < best.Bytes {
				best = Estimate{Codec: CodecGCD, Bytes: size, GCD: gcd}
			}
		}
	}

	return best, stats, nil
}

func enabled(codecs []CodecType, c CodecType) bool {
	return len(codecs) == 0 || slices.Contains(codecs, c)
}

// Serialize encodes values with the smallest enabled codec and returns the
// chosen codec.
func Serialize(w io.Writer, values []uint64, opts ...SerializeOption) (CodecType, error) {
	est, stats, err := Plan(values, opts...)
	if err != nil {
		return 0, err
	}
	if err := SerializeWith(w, values, est, stats); err != nil {
		return 0, err
	}
	return est.Codec, nil
}

// SerializeWith encodes values according to an estimate returned by Plan.
func SerializeWith(w io.Writer, values []uint64, est Estimate, stats Stats) error {
	if _, err := w.Write([]byte{byte(est.Codec)}); err != nil {
		return err
	}

	switch est.Codec {
	case CodecBitpacked:
		return writeBitpacked(w, slices.Values(values), stats.NumVals, stats.Min, stats.Max)
	case CodecGCD:
		div := fastdiv.New(est.GCD)
		quotients := func(yield func(uint64) bool) {
			for _, v := range values {
				if !yield(div.Div(v - stats.Min)) {
					return
				}
			}
		}
		if err := writeBitpacked(w, quotients, stats.NumVals, 0, div.Div(stats.Max-stats.Min)); err != nil {
			return err
		}
		return WriteGCDFooter(w, stats.Min, est.GCD)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCodec, est.Codec)
	}
}

// Open opens a serialized column, dispatching on its codec byte.
func Open(data []byte) (Column, error) {
	codec, err := CodecOf(data)
	if err != nil {
		return nil, err
	}
	body := data[1:]
	switch codec {
	case CodecBitpacked:
		r, err := OpenBitpacked(body)
		if err != nil {
			return nil, err
		}
		return r, nil
	case CodecGCD:
		r, err := OpenGCD(body, OpenBitpacked)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, &DecodeError{Codec: codec, Err: ErrUnknownCodec}
	}
}

// CodecOf returns the codec of a serialized column without opening it.
func CodecOf(data []byte) (CodecType, error) {
	if len(data) == 0 {
		return 0, &DecodeError{Err: fmt.Errorf("%w: empty column", ErrShortBuffer)}
	}
	return CodecType(data[0]), nil
}
