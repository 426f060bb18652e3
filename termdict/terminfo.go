package termdict

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/lexseg/internal/conv"
)

// TermInfo locates the postings of a term inside its segment.
// The merger treats it as an opaque value.
type TermInfo struct {
	// DocFreq is the number of documents containing the term.
	DocFreq uint32
	// PostingsStart is the byte offset of the posting list.
	PostingsStart uint64
	// PostingsLen is the byte length of the posting list.
	PostingsLen uint64
	// PositionsStart is the byte offset of the term positions.
	PositionsStart uint64
}

func (ti TermInfo) append(dst []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(ti.DocFreq))
	dst = binary.AppendUvarint(dst, ti.PostingsStart)
	dst = binary.AppendUvarint(dst, ti.PostingsLen)
	return binary.AppendUvarint(dst, ti.PositionsStart)
}

// byteReader decodes uvarints and byte runs, remembering the first error.
type byteReader struct {
	buf []byte
	pos int
	err error
}

func (r *byteReader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		r.err = fmt.Errorf("%w: bad uvarint at %d", ErrCorrupt, r.pos)
		return 0
	}
	r.pos += n
	return v
}

func (r *byteReader) bytes(n uint64) []byte {
	if r.err != nil {
		return nil
	}
	end, err := conv.SliceEnd(uint64(r.pos), n, len(r.buf))
	if err != nil {
		r.err = fmt.Errorf("%w: %w", ErrCorrupt, err)
		return nil
	}
	b := r.buf[r.pos:end]
	r.pos = end
	return b
}

func (r *byteReader) termInfo() TermInfo {
	docFreq, err := conv.Uint64ToUint32(r.uvarint())
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return TermInfo{
		DocFreq:        docFreq,
		PostingsStart:  r.uvarint(),
		PostingsLen:    r.uvarint(),
		PositionsStart: r.uvarint(),
	}
}

func (r *byteReader) done() bool { return r.pos >= len(r.buf) }
