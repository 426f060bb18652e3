package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/internal/resource"
	"github.com/hupe1980/lexseg/segment"
	"github.com/hupe1980/lexseg/termdict"
	"golang.org/x/sync/errgroup"
)

// cancellation is checked once per this many merged terms
const termCheckInterval = 1024

// Segments merges inputs into a new segment written to w.
func Segments(ctx context.Context, inputs []*segment.Reader, w io.Writer, opts ...Option) (*Stats, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	if o.resources == nil {
		o.resources = resource.NewController(resource.Config{})
	}

	start := time.Now()
	docs, err := NewDocMap(inputs)
	if err != nil {
		return nil, err
	}

	segOpts := []segment.Option{
		segment.WithCompression(o.compression),
		segment.WithBlockSize(o.blockSize),
	}
	if o.id != uuid.Nil {
		segOpts = append(segOpts, segment.WithID(o.id))
	}
	out := segment.NewWriter(resource.NewWriter(ctx, w, o.resources), docs.NumDocs(), segOpts...)

	stats := &Stats{
		SegmentID: out.ID(),
		Inputs:    len(inputs),
		NumDocs:   docs.NumDocs(),
		Terms:     make(map[string]uint64),
	}
	for _, in := range inputs {
		stats.DroppedDocs += uint64(in.NumDocs() - in.NumAliveDocs())
	}

	o.logger.DebugContext(ctx, "merge started",
		"inputs", len(inputs),
		"docs", docs.NumDocs(),
		"dropped_docs", stats.DroppedDocs,
	)

	// columns are encoded in the background while dictionaries are merged
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	columnFields := unionFields(inputs, segment.KindColumn)
	encoded := make([][]byte, len(columnFields))
	codecs := make([]fastfield.CodecType, len(columnFields))
	g, gctx := errgroup.WithContext(ctx)
	for i, field := range columnFields {
		g.Go(func() error {
			if err := o.resources.AcquireWorker(gctx); err != nil {
				return err
			}
			defer o.resources.ReleaseWorker()

			t0 := time.Now()
			data, codec, err := encodeColumn(gctx, inputs, field, docs, &o)
			if err != nil {
				return fmt.Errorf("merge: column %q: %w", field, err)
			}
			encoded[i], codecs[i] = data, codec
			o.metrics.RecordColumn(field, codec, len(data), time.Since(t0))
			return nil
		})
	}

	for _, field := range unionFields(inputs, segment.KindTermDictionary) {
		n, err := mergeTerms(ctx, inputs, field, docs, out, &o)
		if err != nil {
			cancel()
			_ = g.Wait()
			return nil, fmt.Errorf("merge: term dictionary %q: %w", field, err)
		}
		stats.Terms[field] = n
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, field := range columnFields {
		if err := out.WriteEncodedColumn(field, encoded[i]); err != nil {
			return nil, fmt.Errorf("merge: column %q: %w", field, err)
		}
		stats.Columns = append(stats.Columns, ColumnStats{Field: field, Codec: codecs[i], Bytes: len(encoded[i])})
		encoded[i] = nil
	}

	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	stats.Bytes = out.BytesWritten()
	stats.Duration = time.Since(start)

	o.logger.InfoContext(ctx, "merged segments",
		"segment_id", stats.SegmentID.String(),
		"inputs", stats.Inputs,
		"docs", stats.NumDocs,
		"term_fields", len(stats.Terms),
		"columns", len(stats.Columns),
		"bytes", stats.Bytes,
		"duration", stats.Duration,
	)
	return stats, nil
}

func unionFields(inputs []*segment.Reader, kind segment.SectionKind) []string {
	var fields []string
	for _, in := range inputs {
		fields = append(fields, in.Fields(kind)...)
	}
	slices.Sort(fields)
	return slices.Compact(fields)
}

func mergeTerms(ctx context.Context, inputs []*segment.Reader, field string, docs *DocMap, out *segment.Writer, o *options) (uint64, error) {
	t0 := time.Now()
	streams := make([]termdict.Streamer, len(inputs))
	for i, in := range inputs {
		dict, err := in.TermDictionary(field)
		switch {
		case errors.Is(err, segment.ErrFieldNotFound):
			// keeps segment ordinals aligned with input positions
			streams[i] = termdict.NewSliceStreamer(nil)
		case err != nil:
			return 0, fmt.Errorf("segment %d: %w", i, err)
		default:
			streams[i] = dict.Stream()
		}
	}

	var mergerOpts []termdict.MergerOption
	if o.orderCheck {
		mergerOpts = append(mergerOpts, termdict.WithOrderCheck())
	}
	m := termdict.NewMerger(streams, mergerOpts...)

	dict, err := out.TermDictionary(field)
	if err != nil {
		return 0, err
	}
	var seen uint64
	for m.Advance() {
		seen++
		if seen%termCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		info, keep, err := o.postings.MergeTerm(field, m.Key(), m.CurrentSegmentOrdsAndTermInfos(), docs)
		if err != nil {
			return 0, err
		}
		if !keep {
			continue
		}
		if err := dict.Insert(m.Key(), info); err != nil {
			return 0, err
		}
	}
	if err := m.Err(); err != nil {
		return 0, err
	}
	if err := dict.Finish(); err != nil {
		return 0, err
	}

	n := dict.NumTerms()
	o.metrics.RecordTerms(field, n, time.Since(t0))
	o.logger.DebugContext(ctx, "merged term dictionary", "field", field, "terms", n, "merged_keys", seen)
	return n, nil
}

// encodeColumn gathers the alive values of field across inputs, zero for
// segments without the column, and encodes them.
func encodeColumn(ctx context.Context, inputs []*segment.Reader, field string, docs *DocMap, o *options) ([]byte, fastfield.CodecType, error) {
	reserve := int64(docs.NumDocs()) * 8
	if err := o.resources.AcquireMemory(ctx, reserve); err != nil {
		return nil, 0, err
	}
	defer o.resources.ReleaseMemory(reserve)

	values := make([]uint64, 0, docs.NumDocs())
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		col, err := in.Column(field)
		if errors.Is(err, segment.ErrFieldNotFound) {
			values = append(values, make([]uint64, in.NumAliveDocs())...)
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("segment %d: %w", i, err)
		}
		for doc := range in.AliveDocs {
			values = append(values, col.Get(doc))
		}
	}

	var buf bytes.Buffer
	codec, err := fastfield.Serialize(&buf, values, fastfield.WithCodecs(o.codecs...))
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), codec, nil
}
