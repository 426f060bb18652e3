package termdict

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hupe1980/lexseg/internal/compress"
	"github.com/hupe1980/lexseg/internal/conv"
)

// Dictionary is a read-only view over an encoded dictionary. Raw blocks are
// read in place, so data must stay valid while the dictionary is in use.
type Dictionary struct {
	data        []byte
	blocks      []blockMeta
	numTerms    uint64
	compression Compression

	cache BlockCache
	name  string
}

// Open parses the footer and block index of an encoded dictionary.
func Open(data []byte, opts ...OpenOption) (*Dictionary, error) {
	indexOffset, numTerms, c, err := parseFooter(data)
	if err != nil {
		return nil, err
	}

	r := byteReader{buf: data[indexOffset : len(data)-footerSize]}
	count := r.uvarint()
	if r.err == nil && count > uint64(len(r.buf)) {
		return nil, fmt.Errorf("%w: block count %d", ErrCorrupt, count)
	}

	blocks := make([]blockMeta, 0, count)
	for i := uint64(0); i < count && r.err == nil; i++ {
		m := blockMeta{}
		m.lastKey = r.bytes(r.uvarint())
		m.offset = r.uvarint()
		m.length = r.uvarint()
		m.firstOrdinal = r.uvarint()
		if r.err != nil {
			break
		}
		if _, err := conv.SliceEnd(m.offset, m.length, indexOffset); err != nil {
			return nil, fmt.Errorf("%w: block %d: %w", ErrCorrupt, i, err)
		}
		blocks = append(blocks, m)
	}
	if r.err != nil {
		return nil, r.err
	}
	if !r.done() {
		return nil, fmt.Errorf("%w: trailing index bytes", ErrCorrupt)
	}

	d := &Dictionary{
		data:        data,
		blocks:      blocks,
		numTerms:    numTerms,
		compression: c,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.compression == CompressionNone {
		d.cache = nil
	}
	return d, nil
}

// NumTerms returns the number of terms in the dictionary.
func (d *Dictionary) NumTerms() uint64 { return d.numTerms }

// Compression returns the block compression of the dictionary.
func (d *Dictionary) Compression() Compression { return d.compression }

// Get looks up key.
func (d *Dictionary) Get(key []byte) (TermInfo, bool, error) {
	s := d.Range(key, nil)
	if s.Advance() && bytes.Equal(s.Key(), key) {
		return s.Value(), true, nil
	}
	return TermInfo{}, false, s.Err()
}

// Stream returns a streamer over all terms.
func (d *Dictionary) Stream() *Stream {
	return d.Range(nil, nil)
}

// Range returns a streamer over the terms k with ge <= k < lt. A nil bound is
// unbounded.
func (d *Dictionary) Range(ge, lt []byte) *Stream {
	start := 0
	if ge != nil {
		start = sort.Search(len(d.blocks), func(i int) bool {
			return bytes.Compare(d.blocks[i].lastKey, ge) >= 0
		})
	}
	return &Stream{dict: d, nextBlock: start, ge: ge, lt: lt}
}

func (d *Dictionary) block(i int) ([]byte, error) {
	var key BlockKey
	if d.cache != nil {
		key = BlockKey{Dictionary: d.name, Block: i}
		if data, ok := d.cache.Get(key); ok {
			return data, nil
		}
	}

	m := d.blocks[i]
	frame := d.data[m.offset : m.offset+m.length]
	data, n, err := compress.DecodeBlock(frame, d.compression)
	if err != nil {
		return nil, fmt.Errorf("%w: block %d: %w", ErrCorrupt, i, err)
	}
	if uint64(n) != m.length {
		return nil, fmt.Errorf("%w: block %d: frame length mismatch", ErrCorrupt, i)
	}
	if d.cache != nil {
		d.cache.Set(key, data)
	}
	return data, nil
}

// Stream iterates the terms of a Dictionary in order, decoding one block at a
// time. It implements Streamer.
type Stream struct {
	dict      *Dictionary
	nextBlock int
	r         byteReader
	ge, lt    []byte

	key     []byte
	info    TermInfo
	ordinal uint64
	done    bool
	err     error
}

var _ Streamer = (*Stream)(nil)

// Advance moves to the next term in range.
func (s *Stream) Advance() bool {
	for !s.done {
		if s.r.buf == nil || s.r.done() {
			if !s.loadBlock() {
				return false
			}
		}

		shared := s.r.uvarint()
		suffix := s.r.bytes(s.r.uvarint())
		info := s.r.termInfo()
		if s.r.err != nil {
			s.fail(s.r.err)
			return false
		}
		if shared > uint64(len(s.key)) {
			s.fail(fmt.Errorf("%w: shared prefix %d exceeds previous key", ErrCorrupt, shared))
			return false
		}
		s.key = append(s.key[:shared], suffix...)
		s.info = info
		s.ordinal++

		if s.ge != nil && bytes.Compare(s.key, s.ge) < 0 {
			continue
		}
		if s.lt != nil && bytes.Compare(s.key, s.lt) >= 0 {
			s.done = true
			return false
		}
		return true
	}
	return false
}

func (s *Stream) loadBlock() bool {
	if s.nextBlock >= len(s.dict.blocks) {
		s.done = true
		return false
	}
	data, err := s.dict.block(s.nextBlock)
	if err != nil {
		s.fail(err)
		return false
	}
	s.r = byteReader{buf: data}
	s.key = s.key[:0]
	// ordinal is incremented before each entry is exposed
	s.ordinal = s.dict.blocks[s.nextBlock].firstOrdinal - 1
	s.nextBlock++
	if len(data) == 0 {
		s.fail(fmt.Errorf("%w: empty block", ErrCorrupt))
		return false
	}
	return true
}

func (s *Stream) fail(err error) {
	s.err = err
	s.done = true
}

// Key returns the current term. The slice is reused by Advance.
func (s *Stream) Key() []byte { return s.key }

// Value returns the TermInfo of the current term.
func (s *Stream) Value() TermInfo { return s.info }

// Ordinal returns the position of the current term in the dictionary.
func (s *Stream) Ordinal() uint64 { return s.ordinal }

// Err returns the decoding error that ended the stream, if any.
func (s *Stream) Err() error { return s.err }
