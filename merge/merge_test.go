package merge

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/internal/resource"
	"github.com/hupe1980/lexseg/internal/testutil"
	"github.com/hupe1980/lexseg/segment"
	"github.com/hupe1980/lexseg/termdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSegment struct {
	numDocs uint32
	dicts   map[string][]termdict.Entry
	columns map[string][]uint64
	deletes []uint32
}

func entries(kv ...any) []termdict.Entry {
	var out []termdict.Entry
	for i := 0; i < len(kv); i += 2 {
		out = append(out, termdict.Entry{
			Key:  []byte(kv[i].(string)),
			Info: termdict.TermInfo{DocFreq: uint32(kv[i+1].(int))},
		})
	}
	return out
}

func build(t *testing.T, s testSegment) *segment.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := segment.NewWriter(&buf, s.numDocs)
	for field, es := range s.dicts {
		d, err := w.TermDictionary(field)
		require.NoError(t, err)
		for _, e := range es {
			require.NoError(t, d.Insert(e.Key, e.Info))
		}
		require.NoError(t, d.Finish())
	}
	for field, values := range s.columns {
		_, err := w.WriteColumn(field, values)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteDeletes(roaring.BitmapOf(s.deletes...)))
	require.NoError(t, w.Close())

	r, err := segment.Open(buf.Bytes())
	require.NoError(t, err)
	return r
}

func fixture(t *testing.T) []*segment.Reader {
	return []*segment.Reader{
		build(t, testSegment{
			numDocs: 4,
			dicts:   map[string][]termdict.Entry{"body": entries("a", 2, "c", 1)},
			columns: map[string][]uint64{"price": {10, 20, 30, 40}},
			deletes: []uint32{1},
		}),
		build(t, testSegment{
			numDocs: 3,
			dicts:   map[string][]termdict.Entry{"body": entries("b", 1, "c", 3)},
			columns: map[string][]uint64{"rank": {5, 5, 5}},
		}),
		build(t, testSegment{
			numDocs: 2,
			dicts:   map[string][]termdict.Entry{"title": entries("go", 2)},
			columns: map[string][]uint64{"price": {100, 200}},
		}),
	}
}

func readTerms(t *testing.T, r *segment.Reader, field string) map[string]uint32 {
	t.Helper()
	d, err := r.TermDictionary(field)
	require.NoError(t, err)
	out := map[string]uint32{}
	s := d.Stream()
	for s.Advance() {
		out[string(s.Key())] = s.Value().DocFreq
	}
	require.NoError(t, s.Err())
	return out
}

func readColumn(t *testing.T, r *segment.Reader, field string) []uint64 {
	t.Helper()
	col, err := r.Column(field)
	require.NoError(t, err)
	out := make([]uint64, col.NumVals())
	for i := range out {
		out[i] = col.Get(uint32(i))
	}
	return out
}

func TestSegments(t *testing.T) {
	inputs := fixture(t)
	id := uuid.New()

	var out bytes.Buffer
	stats, err := Segments(context.Background(), inputs, &out, WithSegmentID(id), WithCompression(termdict.CompressionZSTD))
	require.NoError(t, err)

	assert.Equal(t, id, stats.SegmentID)
	assert.Equal(t, 3, stats.Inputs)
	assert.Equal(t, uint32(8), stats.NumDocs)
	assert.Equal(t, uint64(1), stats.DroppedDocs)
	assert.Equal(t, map[string]uint64{"body": 3, "title": 1}, stats.Terms)
	assert.Equal(t, uint64(out.Len()), stats.Bytes)
	require.Len(t, stats.Columns, 2)
	assert.Equal(t, "price", stats.Columns[0].Field)
	assert.Equal(t, "rank", stats.Columns[1].Field)

	merged, err := segment.Open(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, merged.ID())
	assert.Equal(t, uint32(8), merged.NumDocs())
	assert.Equal(t, uint32(8), merged.NumAliveDocs())
	assert.Nil(t, merged.Deletes())
	assert.Equal(t, []string{"body", "title"}, merged.Fields(segment.KindTermDictionary))

	assert.Equal(t, map[string]uint32{"a": 2, "b": 1, "c": 4}, readTerms(t, merged, "body"))
	assert.Equal(t, map[string]uint32{"go": 2}, readTerms(t, merged, "title"))

	assert.Equal(t, []uint64{10, 30, 40, 0, 0, 0, 100, 200}, readColumn(t, merged, "price"))
	assert.Equal(t, []uint64{0, 0, 0, 5, 5, 5, 0, 0}, readColumn(t, merged, "rank"))

	codec, err := merged.ColumnCodec("rank")
	require.NoError(t, err)
	assert.Equal(t, stats.Columns[1].Codec, codec)
}

func TestSegments_GCDRecomputed(t *testing.T) {
	n := uint32(200)
	a := make([]uint64, n)
	b := make([]uint64, n)
	for i := range a {
		a[i] = 1000 + uint64(i)*10
		b[i] = 1000 + uint64(i)*15
	}
	inputs := []*segment.Reader{
		build(t, testSegment{numDocs: n, columns: map[string][]uint64{"ts": a}}),
		build(t, testSegment{numDocs: n, columns: map[string][]uint64{"ts": b}}),
	}

	var out bytes.Buffer
	stats, err := Segments(context.Background(), inputs, &out)
	require.NoError(t, err)
	assert.Equal(t, fastfield.CodecGCD, stats.Columns[0].Codec)

	merged, err := segment.Open(out.Bytes())
	require.NoError(t, err)
	got := readColumn(t, merged, "ts")
	assert.Equal(t, append(a, b...), got)

	col, err := merged.Column("ts")
	require.NoError(t, err)
	gcdCol, ok := col.(*fastfield.GCDReader[*fastfield.BitpackedReader])
	require.True(t, ok)
	assert.Equal(t, uint64(5), gcdCol.GCD())
	assert.Equal(t, uint64(1000), gcdCol.Base())
}

func TestSegments_SingleInputDropsDeletes(t *testing.T) {
	in := build(t, testSegment{
		numDocs: 5,
		dicts:   map[string][]termdict.Entry{"f": entries("x", 5)},
		columns: map[string][]uint64{"v": {1, 2, 3, 4, 5}},
		deletes: []uint32{0, 4},
	})

	var out bytes.Buffer
	stats, err := Segments(context.Background(), []*segment.Reader{in}, &out)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), stats.NumDocs)

	merged, err := segment.Open(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 4}, readColumn(t, merged, "v"))
}

func TestSegments_PostingsMerger(t *testing.T) {
	inputs := fixture(t)

	var mu sync.Mutex
	calls := map[string][]int{}
	pm := PostingsMergerFunc(func(field string, key []byte, sources iter.Seq2[int, termdict.TermInfo], docs *DocMap) (termdict.TermInfo, bool, error) {
		var ords []int
		var df uint32
		for ord, info := range sources {
			ords = append(ords, ord)
			df += info.DocFreq
		}
		mu.Lock()
		calls[field+"/"+string(key)] = ords
		mu.Unlock()
		assert.Equal(t, uint32(8), docs.NumDocs())
		return termdict.TermInfo{DocFreq: df, PostingsStart: uint64(len(ords))}, string(key) != "b", nil
	})

	var out bytes.Buffer
	stats, err := Segments(context.Background(), inputs, &out, WithPostingsMerger(pm), WithOrderCheck())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Terms["body"])

	assert.Equal(t, map[string][]int{
		"body/a":   {0},
		"body/b":   {1},
		"body/c":   {0, 1},
		"title/go": {2},
	}, calls)

	merged, err := segment.Open(out.Bytes())
	require.NoError(t, err)
	d, err := merged.TermDictionary("body")
	require.NoError(t, err)
	info, ok, err := d.Get([]byte("c"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, termdict.TermInfo{DocFreq: 4, PostingsStart: 2}, info)
	_, ok, err = d.Get([]byte("b"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSegments_Errors(t *testing.T) {
	t.Run("no inputs", func(t *testing.T) {
		_, err := Segments(context.Background(), nil, &bytes.Buffer{})
		assert.ErrorIs(t, err, ErrNoInputs)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Segments(ctx, fixture(t), &bytes.Buffer{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("postings merger failure", func(t *testing.T) {
		boom := assert.AnError
		pm := PostingsMergerFunc(func(string, []byte, iter.Seq2[int, termdict.TermInfo], *DocMap) (termdict.TermInfo, bool, error) {
			return termdict.TermInfo{}, false, boom
		})
		_, err := Segments(context.Background(), fixture(t), &bytes.Buffer{}, WithPostingsMerger(pm))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("memory budget too small", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 8})
		_, err := Segments(context.Background(), fixture(t), &bytes.Buffer{}, WithResources(rc))
		assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	})
}

type recordingMetrics struct {
	mu      sync.Mutex
	terms   map[string]uint64
	columns map[string]fastfield.CodecType
}

func (m *recordingMetrics) RecordTerms(field string, terms uint64, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terms[field] = terms
}

func (m *recordingMetrics) RecordColumn(field string, codec fastfield.CodecType, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.columns[field] = codec
}

func TestSegments_Observability(t *testing.T) {
	metrics := &recordingMetrics{terms: map[string]uint64{}, columns: map[string]fastfield.CodecType{}}
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	rc := resource.NewController(resource.Config{MaxWorkers: 4, IOLimitBytesPerSec: 1 << 20, MemoryLimitBytes: 1 << 20})

	_, err := Segments(context.Background(), fixture(t), &bytes.Buffer{},
		WithMetrics(metrics), WithLogger(logger), WithResources(rc))
	require.NoError(t, err)

	assert.Equal(t, map[string]uint64{"body": 3, "title": 1}, metrics.terms)
	assert.Len(t, metrics.columns, 2)
	assert.Zero(t, rc.MemoryUsage())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "merged segments", entry["msg"])
	assert.Equal(t, float64(8), entry["docs"])
}

func TestDocMap(t *testing.T) {
	m, err := NewDocMap(fixture(t))
	require.NoError(t, err)
	assert.Equal(t, uint32(8), m.NumDocs())

	cases := []struct {
		seg  int
		doc  uint32
		want uint32
		ok   bool
	}{
		{0, 0, 0, true},
		{0, 1, 0, false},
		{0, 2, 1, true},
		{0, 3, 2, true},
		{1, 0, 3, true},
		{1, 2, 5, true},
		{2, 1, 7, true},
	}
	for _, tc := range cases {
		got, ok := m.Map(tc.seg, tc.doc)
		assert.Equal(t, tc.ok, ok, "seg %d doc %d", tc.seg, tc.doc)
		if tc.ok {
			assert.Equal(t, tc.want, got, "seg %d doc %d", tc.seg, tc.doc)
		}
	}
}

func TestDocFreqMerger(t *testing.T) {
	sources := func(yield func(int, termdict.TermInfo) bool) {
		_ = yield(0, termdict.TermInfo{DocFreq: 3, PostingsStart: 9}) &&
			yield(4, termdict.TermInfo{DocFreq: 1<<32 - 2})
	}
	info, keep, err := DocFreqMerger{}.MergeTerm("f", []byte("k"), sources, nil)
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Equal(t, termdict.TermInfo{DocFreq: 1<<32 - 1}, info)
}

func TestSegments_Random(t *testing.T) {
	rng := testutil.NewRNG(42)
	vocab := rng.Terms(2000, 6)

	const numInputs = 5
	var inputs []*segment.Reader
	wantDF := map[string]uint32{}
	var wantTS []uint64
	for range numInputs {
		numDocs := uint32(50 + rng.Intn(200))
		terms := rng.Subset(vocab, 0.2)
		dfs := rng.DocFreqs(len(terms), 30)
		var es []termdict.Entry
		for i, term := range terms {
			es = append(es, termdict.Entry{Key: term, Info: termdict.TermInfo{DocFreq: dfs[i]}})
			wantDF[string(term)] += dfs[i]
		}
		ts := rng.Sparse(rng.Multiples(int(numDocs), 1_600_000_000, 60, 10_000), 0.1)
		deletes := rng.Deletes(numDocs, 0.15)

		in := build(t, testSegment{
			numDocs: numDocs,
			dicts:   map[string][]termdict.Entry{"body": es},
			columns: map[string][]uint64{"ts": ts},
			deletes: deletes,
		})
		for doc := range in.AliveDocs {
			wantTS = append(wantTS, ts[doc])
		}
		inputs = append(inputs, in)
	}

	rc := resource.NewController(resource.Config{MaxWorkers: 2})
	var out bytes.Buffer
	stats, err := Segments(context.Background(), inputs, &out,
		WithResources(rc), WithOrderCheck(), WithCompression(termdict.CompressionLZ4), WithBlockSize(512))
	require.NoError(t, err)
	assert.Equal(t, uint32(len(wantTS)), stats.NumDocs)
	assert.Equal(t, uint64(len(wantDF)), stats.Terms["body"])

	merged, err := segment.Open(out.Bytes())
	require.NoError(t, err)

	got := readTerms(t, merged, "body")
	assert.Len(t, got, len(wantDF))
	for term, df := range wantDF {
		assert.Equal(t, df, got[term], "term %q", term)
	}
	assert.Equal(t, wantTS, readColumn(t, merged, "ts"))
}
