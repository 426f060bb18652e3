package segment

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/internal/conv"
	"github.com/hupe1980/lexseg/internal/hash"
	"github.com/hupe1980/lexseg/termdict"
)

type writerOptions struct {
	id          uuid.UUID
	compression termdict.Compression
	blockSize   int
	codecs      []fastfield.CodecType
}

// Option configures a Writer.
type Option func(*writerOptions)

// WithID sets the segment id instead of generating a random one.
func WithID(id uuid.UUID) Option {
	return func(o *writerOptions) { o.id = id }
}

// WithCompression sets the block compression of term dictionaries.
func WithCompression(c termdict.Compression) Option {
	return func(o *writerOptions) { o.compression = c }
}

// WithBlockSize sets the block size of term dictionaries.
func WithBlockSize(n int) Option {
	return func(o *writerOptions) { o.blockSize = n }
}

// WithCodecs restricts the codecs considered for columns.
func WithCodecs(codecs ...fastfield.CodecType) Option {
	return func(o *writerOptions) { o.codecs = codecs }
}

// Writer writes a segment file section by section.
//
// Sections are written one at a time; a Writer is not safe for concurrent use.
type Writer struct {
	cw      *countingWriter
	opts    writerOptions
	numDocs uint32

	sections []section
	seen     map[sectionKey]struct{}
	open     *DictionaryWriter
	closed   bool
}

type countingWriter struct {
	w   io.Writer
	n   uint64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += uint64(n)
	if err != nil {
		c.err = err
	}
	return n, err
}

// NewWriter creates a writer for a segment of numDocs documents.
func NewWriter(w io.Writer, numDocs uint32, opts ...Option) *Writer {
	o := writerOptions{
		id:          uuid.New(),
		compression: termdict.CompressionNone,
		blockSize:   termdict.DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Writer{
		cw:      &countingWriter{w: w},
		opts:    o,
		numDocs: numDocs,
		seen:    make(map[sectionKey]struct{}),
	}
}

// ID returns the id written to the footer.
func (w *Writer) ID() uuid.UUID { return w.opts.id }

// NumDocs returns the document count of the segment.
func (w *Writer) NumDocs() uint32 { return w.numDocs }

// BytesWritten returns the bytes written so far.
func (w *Writer) BytesWritten() uint64 { return w.cw.n }

func (w *Writer) begin(key sectionKey) error {
	if w.closed {
		return ErrClosed
	}
	if w.cw.err != nil {
		return w.cw.err
	}
	if w.open != nil {
		return ErrSectionOpen
	}
	if len(key.field) > maxFieldLen {
		return fmt.Errorf("segment: field name of %d bytes too long", len(key.field))
	}
	if _, ok := w.seen[key]; ok {
		return fmt.Errorf("%w: %s %q", ErrDuplicateSection, key.kind, key.field)
	}
	return nil
}

func (w *Writer) commit(key sectionKey, start uint64) {
	w.seen[key] = struct{}{}
	w.sections = append(w.sections, section{
		sectionKey: key,
		offset:     start,
		length:     w.cw.n - start,
	})
}

// TermDictionary starts the term dictionary section of field. The section
// must be finished before any other section is written.
func (w *Writer) TermDictionary(field string) (*DictionaryWriter, error) {
	key := sectionKey{kind: KindTermDictionary, field: field}
	if err := w.begin(key); err != nil {
		return nil, err
	}
	d := &DictionaryWriter{
		seg:   w,
		key:   key,
		start: w.cw.n,
		b: termdict.NewBuilder(w.cw,
			termdict.WithCompression(w.opts.compression),
			termdict.WithBlockSize(w.opts.blockSize),
		),
	}
	w.open = d
	return d, nil
}

// WriteColumn encodes values as the column of field and returns the chosen
// codec. values must hold one value per document.
func (w *Writer) WriteColumn(field string, values []uint64) (fastfield.CodecType, error) {
	if uint64(len(values)) != uint64(w.numDocs) {
		return 0, fmt.Errorf("%w: %d values for %d docs", ErrColumnLength, len(values), w.numDocs)
	}
	var buf bytes.Buffer
	codec, err := fastfield.Serialize(&buf, values, fastfield.WithCodecs(w.opts.codecs...))
	if err != nil {
		return 0, err
	}
	if err := w.WriteEncodedColumn(field, buf.Bytes()); err != nil {
		return 0, err
	}
	return codec, nil
}

// WriteEncodedColumn writes a column already encoded with fastfield.Serialize.
func (w *Writer) WriteEncodedColumn(field string, encoded []byte) error {
	key := sectionKey{kind: KindColumn, field: field}
	if err := w.begin(key); err != nil {
		return err
	}
	col, err := fastfield.Open(encoded)
	if err != nil {
		return err
	}
	if col.NumVals() != w.numDocs {
		return fmt.Errorf("%w: %d values for %d docs", ErrColumnLength, col.NumVals(), w.numDocs)
	}

	start := w.cw.n
	if _, err := w.cw.Write(encoded); err != nil {
		return err
	}
	w.commit(key, start)
	return nil
}

// WriteDeletes writes the deleted-docs bitmap. An empty bitmap writes no
// section.
func (w *Writer) WriteDeletes(deleted *roaring.Bitmap) error {
	key := sectionKey{kind: KindDeletes}
	if err := w.begin(key); err != nil {
		return err
	}
	if deleted == nil || deleted.IsEmpty() {
		return nil
	}
	if deleted.Maximum() >= w.numDocs {
		return fmt.Errorf("%w: %d >= %d", ErrDocOutOfRange, deleted.Maximum(), w.numDocs)
	}

	bm := deleted.Clone()
	bm.RunOptimize()
	start := w.cw.n
	if _, err := bm.WriteTo(w.cw); err != nil {
		return err
	}
	w.commit(key, start)
	return nil
}

// Close writes the section table and footer. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	if w.open != nil {
		return ErrSectionOpen
	}
	if w.cw.err != nil {
		return w.cw.err
	}
	w.closed = true

	table := appendTable(nil, w.sections)
	tableLen, err := conv.Uint64ToUint32(uint64(len(table)))
	if err != nil {
		return err
	}
	tableOffset := w.cw.n

	var footer [footerSize]byte
	copy(footer[0:16], w.opts.id[:])
	binary.LittleEndian.PutUint32(footer[16:], w.numDocs)
	binary.LittleEndian.PutUint64(footer[20:], tableOffset)
	binary.LittleEndian.PutUint32(footer[28:], tableLen)
	binary.LittleEndian.PutUint32(footer[32:], hash.CRC32C(table))
	binary.LittleEndian.PutUint32(footer[36:], version)
	binary.LittleEndian.PutUint32(footer[40:], magic)

	_, err = w.cw.Write(append(table, footer[:]...))
	return err
}

// DictionaryWriter fills the term dictionary section of one field.
type DictionaryWriter struct {
	seg   *Writer
	key   sectionKey
	start uint64
	b     *termdict.Builder
}

// Insert adds a term. Terms must be strictly increasing.
func (d *DictionaryWriter) Insert(key []byte, info termdict.TermInfo) error {
	return d.b.Insert(key, info)
}

// NumTerms returns the number of terms inserted so far.
func (d *DictionaryWriter) NumTerms() uint64 { return d.b.NumTerms() }

// Finish completes the section.
func (d *DictionaryWriter) Finish() error {
	if d.seg.open != d {
		return ErrClosed
	}
	d.seg.open = nil
	if err := d.b.Finish(); err != nil {
		return err
	}
	d.seg.commit(d.key, d.start)
	return nil
}
