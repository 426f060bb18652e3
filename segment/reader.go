package segment

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/blobstore"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/internal/conv"
	"github.com/hupe1980/lexseg/internal/hash"
	"github.com/hupe1980/lexseg/termdict"
)

// Reader gives access to the sections of a segment file.
//
// A Reader is safe for concurrent use. Dictionaries and columns it returns
// reference the underlying data and must not be used after Close.
type Reader struct {
	data     []byte
	id       uuid.UUID
	numDocs  uint32
	version  uint32
	sections map[sectionKey]section
	fields   map[SectionKind][]string
	deletes  *roaring.Bitmap
	closer   io.Closer
	cache    termdict.BlockCache
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithBlockCache caches the decompressed term dictionary blocks of the
// segment in c, keyed by segment id and field.
func WithBlockCache(c termdict.BlockCache) ReaderOption {
	return func(r *Reader) { r.cache = c }
}

// Open parses a segment held in memory.
func Open(data []byte, opts ...ReaderOption) (*Reader, error) {
	if len(data) < footerSize {
		return nil, fmt.Errorf("%w: %d bytes, need footer", ErrCorrupt, len(data))
	}
	footer := data[len(data)-footerSize:]
	if binary.LittleEndian.Uint32(footer[40:]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	ver := binary.LittleEndian.Uint32(footer[36:])
	if ver != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, ver)
	}

	tableOffset, err := conv.SliceEnd(binary.LittleEndian.Uint64(footer[20:]), 0, len(data)-footerSize)
	if err != nil {
		return nil, fmt.Errorf("%w: table offset: %w", ErrCorrupt, err)
	}
	tableEnd, err := conv.SliceEnd(uint64(tableOffset), uint64(binary.LittleEndian.Uint32(footer[28:])), len(data)-footerSize)
	if err != nil {
		return nil, fmt.Errorf("%w: table length: %w", ErrCorrupt, err)
	}
	table := data[tableOffset:tableEnd]
	if hash.CRC32C(table) != binary.LittleEndian.Uint32(footer[32:]) {
		return nil, fmt.Errorf("%w: section table checksum mismatch", ErrCorrupt)
	}

	sections, err := parseTable(table, tableOffset)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		data:     data,
		numDocs:  binary.LittleEndian.Uint32(footer[16:]),
		version:  ver,
		sections: make(map[sectionKey]section, len(sections)),
		fields:   make(map[SectionKind][]string),
	}
	copy(r.id[:], footer[0:16])
	for _, opt := range opts {
		opt(r)
	}

	for _, s := range sections {
		if _, dup := r.sections[s.sectionKey]; dup {
			return nil, fmt.Errorf("%w: %w: %s %q", ErrCorrupt, ErrDuplicateSection, s.kind, s.field)
		}
		r.sections[s.sectionKey] = s
		if s.kind != KindDeletes {
			r.fields[s.kind] = append(r.fields[s.kind], s.field)
		}
	}
	for _, fields := range r.fields {
		slices.Sort(fields)
	}

	if err := r.loadDeletes(); err != nil {
		return nil, err
	}
	return r, nil
}

// OpenBlob reads a segment from a blob. Mappable blobs are used in place.
// The reader takes ownership of the blob and closes it on Close.
func OpenBlob(ctx context.Context, blob blobstore.Blob, opts ...ReaderOption) (*Reader, error) {
	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	r, err := Open(data, opts...)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	r.closer = blob
	return r, nil
}

func (r *Reader) loadDeletes() error {
	s, ok := r.sections[sectionKey{kind: KindDeletes}]
	if !ok {
		return nil
	}
	bm := roaring.New()
	if err := bm.UnmarshalBinary(r.bytes(s)); err != nil {
		return fmt.Errorf("%w: deletes: %w", ErrCorrupt, err)
	}
	if !bm.IsEmpty() && bm.Maximum() >= r.numDocs {
		return fmt.Errorf("%w: deletes: %w", ErrCorrupt, ErrDocOutOfRange)
	}
	r.deletes = bm
	return nil
}

func (r *Reader) bytes(s section) []byte {
	return r.data[s.offset : s.offset+s.length]
}

// Close releases the blob the segment was opened from, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

// ID returns the segment id.
func (r *Reader) ID() uuid.UUID { return r.id }

// NumDocs returns the number of documents, deleted ones included.
func (r *Reader) NumDocs() uint32 { return r.numDocs }

// NumAliveDocs returns the number of documents that are not deleted.
func (r *Reader) NumAliveDocs() uint32 {
	if r.deletes == nil {
		return r.numDocs
	}
	return r.numDocs - uint32(r.deletes.GetCardinality())
}

// Size returns the size of the segment file in bytes.
func (r *Reader) Size() int { return len(r.data) }

// Fields returns the sorted field names that have a section of kind.
func (r *Reader) Fields(kind SectionKind) []string {
	return slices.Clone(r.fields[kind])
}

// SectionSize returns the byte length of a section.
func (r *Reader) SectionSize(kind SectionKind, field string) (uint64, bool) {
	s, ok := r.sections[sectionKey{kind: kind, field: field}]
	return s.length, ok
}

func (r *Reader) section(kind SectionKind, field string) ([]byte, error) {
	s, ok := r.sections[sectionKey{kind: kind, field: field}]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrFieldNotFound, kind, field)
	}
	return r.bytes(s), nil
}

// TermDictionary opens the term dictionary of field.
func (r *Reader) TermDictionary(field string) (*termdict.Dictionary, error) {
	data, err := r.section(KindTermDictionary, field)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		return termdict.Open(data, termdict.WithBlockCache(r.cache, r.id.String()+"/"+field))
	}
	return termdict.Open(data)
}

// Column opens the column of field.
func (r *Reader) Column(field string) (fastfield.Column, error) {
	data, err := r.section(KindColumn, field)
	if err != nil {
		return nil, err
	}
	col, err := fastfield.Open(data)
	if err != nil {
		return nil, err
	}
	if col.NumVals() != r.numDocs {
		return nil, fmt.Errorf("%w: column %q has %d values for %d docs", ErrCorrupt, field, col.NumVals(), r.numDocs)
	}
	return col, nil
}

// ColumnCodec returns the codec of the column of field.
func (r *Reader) ColumnCodec(field string) (fastfield.CodecType, error) {
	data, err := r.section(KindColumn, field)
	if err != nil {
		return 0, err
	}
	return fastfield.CodecOf(data)
}

// Deletes returns the deleted doc ids, or nil if no document is deleted.
// The bitmap must not be modified.
func (r *Reader) Deletes() *roaring.Bitmap { return r.deletes }

// IsDeleted reports whether doc is deleted.
func (r *Reader) IsDeleted(doc uint32) bool {
	return r.deletes != nil && r.deletes.Contains(doc)
}

// AliveDocs yields the ids of documents that are not deleted, in order.
func (r *Reader) AliveDocs(yield func(uint32) bool) {
	for doc := uint32(0); doc < r.numDocs; doc++ {
		if r.IsDeleted(doc) {
			continue
		}
		if !yield(doc) {
			return
		}
	}
}
