package merge

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/internal/resource"
	"github.com/hupe1980/lexseg/termdict"
)

// Metrics receives per-section measurements of a merge.
type Metrics interface {
	RecordTerms(field string, terms uint64, duration time.Duration)
	RecordColumn(field string, codec fastfield.CodecType, bytes int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordTerms(string, uint64, time.Duration)                    {}
func (noopMetrics) RecordColumn(string, fastfield.CodecType, int, time.Duration) {}

type options struct {
	logger      *slog.Logger
	metrics     Metrics
	resources   *resource.Controller
	postings    PostingsMerger
	compression termdict.Compression
	blockSize   int
	orderCheck  bool
	codecs      []fastfield.CodecType
	id          uuid.UUID
}

func defaultOptions() options {
	return options{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:     noopMetrics{},
		postings:    DocFreqMerger{},
		compression: termdict.CompressionNone,
		blockSize:   termdict.DefaultBlockSize,
	}
}

// Option configures a merge.
type Option func(*options)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithResources bounds workers, memory and write throughput. Without it
// columns are encoded one at a time.
func WithResources(c *resource.Controller) Option {
	return func(o *options) { o.resources = c }
}

// WithPostingsMerger sets how merged TermInfos are produced.
// Default: DocFreqMerger.
func WithPostingsMerger(p PostingsMerger) Option {
	return func(o *options) {
		if p != nil {
			o.postings = p
		}
	}
}

// WithCompression sets the block compression of the merged dictionaries.
func WithCompression(c termdict.Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithBlockSize sets the block size of the merged dictionaries.
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

// WithOrderCheck verifies that every input dictionary is sorted.
func WithOrderCheck() Option {
	return func(o *options) { o.orderCheck = true }
}

// WithCodecs restricts the column codecs.
func WithCodecs(codecs ...fastfield.CodecType) Option {
	return func(o *options) { o.codecs = codecs }
}

// WithSegmentID sets the id of the merged segment.
func WithSegmentID(id uuid.UUID) Option {
	return func(o *options) { o.id = id }
}
