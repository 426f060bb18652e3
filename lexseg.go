package lexseg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/blobstore"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/internal/resource"
	"github.com/hupe1980/lexseg/merge"
	"github.com/hupe1980/lexseg/segment"
	"github.com/hupe1980/lexseg/termdict"
)

// Segment is a segment opened from a blob store.
type Segment struct {
	*segment.Reader
	name string
}

// Name returns the blob name the segment was opened from.
func (s *Segment) Name() string { return s.name }

// OpenSegment opens the segment stored under name.
func OpenSegment(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Segment, error) {
	opts := applyOptions(optFns)
	return openSegment(ctx, store, name, &opts)
}

func openSegment(ctx context.Context, store blobstore.BlobStore, name string, opts *options) (*Segment, error) {
	start := time.Now()
	seg, err := func() (*Segment, error) {
		blob, err := store.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		var readerOpts []segment.ReaderOption
		if opts.blockCache != nil {
			readerOpts = append(readerOpts, segment.WithBlockCache(opts.blockCache))
		}
		r, err := segment.OpenBlob(ctx, blob, readerOpts...)
		if err != nil {
			return nil, err
		}
		return &Segment{Reader: r, name: name}, nil
	}()
	err = translateError(err, nil)

	size := 0
	if seg != nil {
		size = seg.Size()
	}
	opts.metricsCollector.RecordOpen(size, time.Since(start), err)
	opts.logger.LogOpen(ctx, name, seg, err)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return seg, nil
}

// DictionaryInfo describes a term dictionary section.
type DictionaryInfo struct {
	Field       string
	Terms       uint64
	Compression termdict.Compression
	Bytes       uint64
}

// ColumnInfo describes a column section.
type ColumnInfo struct {
	Field string
	Codec fastfield.CodecType
	Min   uint64
	Max   uint64
	Bytes uint64
}

// SegmentInfo summarizes a segment.
type SegmentInfo struct {
	Name         string
	ID           uuid.UUID
	NumDocs      uint32
	NumAliveDocs uint32
	Bytes        int
	Dictionaries []DictionaryInfo
	Columns      []ColumnInfo
}

// Describe opens every section of the segment and summarizes it.
func (s *Segment) Describe() (*SegmentInfo, error) {
	info := &SegmentInfo{
		Name:         s.name,
		ID:           s.ID(),
		NumDocs:      s.NumDocs(),
		NumAliveDocs: s.NumAliveDocs(),
		Bytes:        s.Size(),
	}

	for _, field := range s.Fields(segment.KindTermDictionary) {
		d, err := s.TermDictionary(field)
		if err != nil {
			return nil, translateError(err, nil)
		}
		size, _ := s.SectionSize(segment.KindTermDictionary, field)
		info.Dictionaries = append(info.Dictionaries, DictionaryInfo{
			Field:       field,
			Terms:       d.NumTerms(),
			Compression: d.Compression(),
			Bytes:       size,
		})
	}

	for _, field := range s.Fields(segment.KindColumn) {
		col, err := s.Column(field)
		if err != nil {
			return nil, translateError(err, nil)
		}
		codec, err := s.ColumnCodec(field)
		if err != nil {
			return nil, translateError(err, nil)
		}
		size, _ := s.SectionSize(segment.KindColumn, field)
		info.Columns = append(info.Columns, ColumnInfo{
			Field: field,
			Codec: codec,
			Min:   col.MinValue(),
			Max:   col.MaxValue(),
			Bytes: size,
		})
	}
	return info, nil
}

// Merge merges the segments named inputs into a new segment stored under
// output. Deleted documents are dropped. The output blob is only committed
// when the merge succeeds.
func Merge(ctx context.Context, store blobstore.BlobStore, inputs []string, output string, optFns ...Option) (*merge.Stats, error) {
	opts := applyOptions(optFns)
	start := time.Now()

	stats, err := mergeSegments(ctx, store, inputs, output, &opts)
	err = translateError(err, inputs)

	if err != nil {
		opts.metricsCollector.RecordMerge(len(inputs), 0, 0, time.Since(start), err)
	} else {
		opts.metricsCollector.RecordMerge(len(inputs), stats.NumDocs, stats.Bytes, time.Since(start), nil)
	}
	opts.logger.LogMerge(ctx, inputs, output, stats, err)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func mergeSegments(ctx context.Context, store blobstore.BlobStore, inputs []string, output string, opts *options) (_ *merge.Stats, err error) {
	if len(inputs) == 0 {
		return nil, merge.ErrNoInputs
	}

	inputOpts := *opts
	inputOpts.blockCache = nil

	readers := make([]*segment.Reader, 0, len(inputs))
	defer func() {
		for _, r := range readers {
			err = errors.Join(err, r.Close())
		}
	}()
	for _, name := range inputs {
		seg, err := openSegment(ctx, store, name, &inputOpts)
		if err != nil {
			return nil, err
		}
		readers = append(readers, seg.Reader)
	}

	wb, err := store.Create(ctx, output)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", output, err)
	}

	mergeOpts := []merge.Option{
		merge.WithLogger(opts.logger.Logger),
		merge.WithMetrics(opts.metricsCollector),
		merge.WithResources(resource.NewController(resource.Config{
			MemoryLimitBytes:   opts.resources.MemoryLimitBytes,
			MaxWorkers:         int64(opts.resources.MaxWorkers),
			IOLimitBytesPerSec: opts.resources.IOLimitBytesPerSec,
		})),
		merge.WithCompression(opts.compression),
		merge.WithBlockSize(opts.blockSize),
		merge.WithPostingsMerger(opts.postings),
		merge.WithCodecs(opts.codecs...),
	}
	if opts.orderCheck {
		mergeOpts = append(mergeOpts, merge.WithOrderCheck())
	}

	stats, err := merge.Segments(ctx, readers, wb, mergeOpts...)
	if err != nil {
		return nil, errors.Join(err, wb.Abort())
	}
	if err := wb.Close(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", output, err)
	}
	return stats, nil
}
