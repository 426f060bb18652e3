// Package compress frames and compresses blocks with LZ4 or ZSTD.
//
// Frame format: [UncompressedSize uint32][CompressedSize uint32][Data...].
// CompressedSize == 0 means Data is stored raw.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/lexseg/internal/conv"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type selects the block compression algorithm.
type Type uint8

const (
	// None stores blocks raw.
	None Type = 0
	// LZ4 favors decode speed.
	LZ4 Type = 1
	// ZSTD favors ratio.
	ZSTD Type = 2
)

// HeaderSize is the size of a block frame header.
const HeaderSize = 8

// ErrCorrupt is returned when a frame cannot be decoded.
var ErrCorrupt = errors.New("compress: corrupt block")

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(t))
	}
}

// Parse parses a compression name as returned by String. The empty string
// maps to None.
func Parse(name string) (Type, error) {
	switch name {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("compress: unknown compression %q", name)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// AppendBlock compresses data and appends the framed block to dst.
// Blocks that do not shrink below 90% of their size are stored raw.
func AppendBlock(dst, data []byte, t Type) ([]byte, error) {
	rawSize, err := conv.IntToUint32(len(data))
	if err != nil {
		return nil, err
	}

	var compressed []byte
	switch t {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n] // n == 0: incompressible
	case ZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("compress: unknown compression %s", t)
	}

	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:], rawSize)
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		dst = append(dst, header[:]...)
		return append(dst, data...), nil
	}
	binary.LittleEndian.PutUint32(header[4:], uint32(len(compressed)))
	dst = append(dst, header[:]...)
	return append(dst, compressed...), nil
}

// DecodeBlock decodes the frame at the start of frame and returns the block
// data and the number of frame bytes consumed. Raw blocks are returned without
// copying.
func DecodeBlock(frame []byte, t Type) ([]byte, int, error) {
	if len(frame) < HeaderSize {
		return nil, 0, fmt.Errorf("%w: %d bytes, need header", ErrCorrupt, len(frame))
	}
	rawSize := binary.LittleEndian.Uint32(frame[0:])
	compressedSize := binary.LittleEndian.Uint32(frame[4:])

	if compressedSize == 0 {
		end, err := conv.SliceEnd(HeaderSize, uint64(rawSize), len(frame))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return frame[HeaderSize:end], end, nil
	}

	end, err := conv.SliceEnd(HeaderSize, uint64(compressedSize), len(frame))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	payload := frame[HeaderSize:end]
	out := make([]byte, rawSize)

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != rawSize {
			return nil, 0, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, end, nil
	case ZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, 0, err
		}
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(payload, out[:0])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != rawSize {
			return nil, 0, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, end, nil
	default:
		return nil, 0, fmt.Errorf("%w: compressed frame with compression %s", ErrCorrupt, t)
	}
}
