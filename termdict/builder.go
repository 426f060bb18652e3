package termdict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/lexseg/internal/compress"
	"github.com/hupe1980/lexseg/internal/conv"
)

const (
	// DefaultBlockSize is the default uncompressed block size in bytes.
	DefaultBlockSize = 4096

	footerSize = 24
	magic      = uint32(0x4C585444) // "LXTD"
)

// Compression selects how dictionary blocks are compressed.
type Compression = compress.Type

// Supported block compressions.
const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	return compress.Parse(name)
}

type blockMeta struct {
	lastKey      []byte
	offset       uint64
	length       uint64
	firstOrdinal uint64
}

type builderOptions struct {
	compression Compression
	blockSize   int
}

// BuilderOption configures a Builder.
type BuilderOption func(*builderOptions)

// WithCompression sets the block compression. Default: none.
func WithCompression(c Compression) BuilderOption {
	return func(o *builderOptions) {
		o.compression = c
	}
}

// WithBlockSize sets the target uncompressed block size. Values <= 0 select
// DefaultBlockSize.
func WithBlockSize(n int) BuilderOption {
	return func(o *builderOptions) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// Builder writes a dictionary from keys inserted in strictly increasing order.
type Builder struct {
	w           io.Writer
	compression Compression
	blockSize   int

	block    []byte
	frame    []byte
	lastKey  []byte
	index    []blockMeta
	numTerms uint64
	blockOrd uint64
	written  uint64
	finished bool
	err      error
}

// NewBuilder creates a builder writing to w.
func NewBuilder(w io.Writer, opts ...BuilderOption) *Builder {
	o := builderOptions{
		compression: CompressionNone,
		blockSize:   DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{
		w:           w,
		compression: o.compression,
		blockSize:   o.blockSize,
		block:       make([]byte, 0, o.blockSize+64),
	}
}

// Insert appends key with its TermInfo. Keys must be strictly increasing.
func (b *Builder) Insert(key []byte, info TermInfo) error {
	if b.finished {
		return ErrClosed
	}
	if b.err != nil {
		return b.err
	}
	if b.numTerms > 0 && bytes.Compare(key, b.lastKey) <= 0 {
		return fmt.Errorf("%w: %q after %q", ErrKeyOrder, key, b.lastKey)
	}

	shared := 0
	if len(b.block) > 0 {
		shared = commonPrefix(b.lastKey, key)
	}
	b.block = binary.AppendUvarint(b.block, uint64(shared))
	b.block = binary.AppendUvarint(b.block, uint64(len(key)-shared))
	b.block = append(b.block, key[shared:]...)
	b.block = info.append(b.block)

	b.lastKey = append(b.lastKey[:0], key...)
	b.numTerms++

	if len(b.block) >= b.blockSize {
		return b.flushBlock()
	}
	return nil
}

func (b *Builder) flushBlock() error {
	frame, err := compress.AppendBlock(b.frame[:0], b.block, b.compression)
	if err != nil {
		b.err = err
		return err
	}
	b.frame = frame
	if err := b.write(frame); err != nil {
		return err
	}
	b.index = append(b.index, blockMeta{
		lastKey:      bytes.Clone(b.lastKey),
		offset:       b.written - uint64(len(frame)),
		length:       uint64(len(frame)),
		firstOrdinal: b.blockOrd,
	})
	b.block = b.block[:0]
	b.blockOrd = b.numTerms
	return nil
}

func (b *Builder) write(p []byte) error {
	n, err := b.w.Write(p)
	b.written += uint64(n)
	if err != nil {
		b.err = err
	}
	return err
}

// Finish flushes the last block and writes the index and footer. The builder
// cannot be used afterwards.
func (b *Builder) Finish() error {
	if b.finished {
		return ErrClosed
	}
	if b.err != nil {
		return b.err
	}
	b.finished = true
	if len(b.block) > 0 {
		if err := b.flushBlock(); err != nil {
			return err
		}
	}

	indexOffset := b.written
	buf := binary.AppendUvarint(nil, uint64(len(b.index)))
	for _, m := range b.index {
		buf = binary.AppendUvarint(buf, uint64(len(m.lastKey)))
		buf = append(buf, m.lastKey...)
		buf = binary.AppendUvarint(buf, m.offset)
		buf = binary.AppendUvarint(buf, m.length)
		buf = binary.AppendUvarint(buf, m.firstOrdinal)
	}

	var footer [footerSize]byte
	binary.LittleEndian.PutUint64(footer[0:], indexOffset)
	binary.LittleEndian.PutUint64(footer[8:], b.numTerms)
	footer[16] = byte(b.compression)
	binary.LittleEndian.PutUint32(footer[20:], magic)
	buf = append(buf, footer[:]...)

	return b.write(buf)
}

// NumTerms returns the number of keys inserted so far.
func (b *Builder) NumTerms() uint64 { return b.numTerms }

// BytesWritten returns the number of bytes written to the underlying writer.
func (b *Builder) BytesWritten() uint64 { return b.written }

func commonPrefix(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// parseFooter validates the footer and returns index offset, term count and
// compression.
func parseFooter(data []byte) (int, uint64, Compression, error) {
	if len(data) < footerSize {
		return 0, 0, 0, fmt.Errorf("%w: %d bytes, need footer", ErrCorrupt, len(data))
	}
	footer := data[len(data)-footerSize:]
	if binary.LittleEndian.Uint32(footer[20:]) != magic {
		return 0, 0, 0, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	indexOffset, err := conv.SliceEnd(binary.LittleEndian.Uint64(footer[0:]), 0, len(data)-footerSize)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: index offset: %w", ErrCorrupt, err)
	}
	c := Compression(footer[16])
	if c > CompressionZSTD {
		return 0, 0, 0, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, footer[16])
	}
	return indexOffset, binary.LittleEndian.Uint64(footer[8:]), c, nil
}
