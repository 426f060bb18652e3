package lexseg

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/lexseg/fastfield"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see the metrics/promcollector package for a ready-made one.
//
// RecordTerms and RecordColumn are called from merge workers and must be
// safe for concurrent use.
type MetricsCollector interface {
	// RecordOpen is called after each segment open.
	// bytes is the segment size, zero on failure.
	RecordOpen(bytes int, duration time.Duration, err error)

	// RecordMerge is called after each merge.
	// inputs is the number of merged segments, docs and bytes describe the
	// output and are zero on failure.
	RecordMerge(inputs int, docs uint32, bytes uint64, duration time.Duration, err error)

	// RecordTerms is called after merging the term dictionary of a field.
	RecordTerms(field string, terms uint64, duration time.Duration)

	// RecordColumn is called after encoding the column of a field.
	RecordColumn(field string, codec fastfield.CodecType, bytes int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(int, time.Duration, error)                         {}
func (NoopMetricsCollector) RecordMerge(int, uint32, uint64, time.Duration, error)        {}
func (NoopMetricsCollector) RecordTerms(string, uint64, time.Duration)                    {}
func (NoopMetricsCollector) RecordColumn(string, fastfield.CodecType, int, time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpenCount       atomic.Int64
	OpenErrors      atomic.Int64
	OpenBytes       atomic.Int64
	MergeCount      atomic.Int64
	MergeErrors     atomic.Int64
	MergeInputs     atomic.Int64
	MergeDocs       atomic.Int64
	MergeBytes      atomic.Int64
	MergeTotalNanos atomic.Int64
	TermsMerged     atomic.Int64
	ColumnsEncoded  atomic.Int64
	ColumnBytes     atomic.Int64

	mu     sync.Mutex
	codecs map[fastfield.CodecType]int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(bytes int, _ time.Duration, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
		return
	}
	b.OpenBytes.Add(int64(bytes))
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(inputs int, docs uint32, bytes uint64, duration time.Duration, err error) {
	b.MergeCount.Add(1)
	b.MergeInputs.Add(int64(inputs))
	b.MergeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MergeErrors.Add(1)
		return
	}
	b.MergeDocs.Add(int64(docs))
	b.MergeBytes.Add(int64(bytes))
}

// RecordTerms implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTerms(_ string, terms uint64, _ time.Duration) {
	b.TermsMerged.Add(int64(terms))
}

// RecordColumn implements MetricsCollector.
func (b *BasicMetricsCollector) RecordColumn(_ string, codec fastfield.CodecType, bytes int, _ time.Duration) {
	b.ColumnsEncoded.Add(1)
	b.ColumnBytes.Add(int64(bytes))

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.codecs == nil {
		b.codecs = make(map[fastfield.CodecType]int64)
	}
	b.codecs[codec]++
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		OpenCount:      b.OpenCount.Load(),
		OpenErrors:     b.OpenErrors.Load(),
		OpenBytes:      b.OpenBytes.Load(),
		MergeCount:     b.MergeCount.Load(),
		MergeErrors:    b.MergeErrors.Load(),
		MergeInputs:    b.MergeInputs.Load(),
		MergeDocs:      b.MergeDocs.Load(),
		MergeBytes:     b.MergeBytes.Load(),
		MergeAvgNanos:  b.getAvgMergeNanos(),
		TermsMerged:    b.TermsMerged.Load(),
		ColumnsEncoded: b.ColumnsEncoded.Load(),
		ColumnBytes:    b.ColumnBytes.Load(),
		ColumnCodecs:   make(map[fastfield.CodecType]int64),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c, n := range b.codecs {
		s.ColumnCodecs[c] = n
	}
	return s
}

func (b *BasicMetricsCollector) getAvgMergeNanos() int64 {
	count := b.MergeCount.Load()
	if count == 0 {
		return 0
	}
	return b.MergeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount      int64
	OpenErrors     int64
	OpenBytes      int64
	MergeCount     int64
	MergeErrors    int64
	MergeInputs    int64
	MergeDocs      int64
	MergeBytes     int64
	MergeAvgNanos  int64
	TermsMerged    int64
	ColumnsEncoded int64
	ColumnBytes    int64
	ColumnCodecs   map[fastfield.CodecType]int64
}
