package lexseg

import (
	"log/slog"

	"github.com/hupe1980/lexseg/fastfield"
	"github.com/hupe1980/lexseg/merge"
	"github.com/hupe1980/lexseg/termdict"
)

// ResourceConfig bounds the resources of a merge.
type ResourceConfig struct {
	// MemoryLimitBytes bounds the memory reserved for column encoding.
	// If 0, unlimited.
	MemoryLimitBytes int64

	// MaxWorkers is the number of columns encoded concurrently.
	// If 0, defaults to 1.
	MaxWorkers int

	// IOLimitBytesPerSec throttles writing the merged segment.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	compression      termdict.Compression
	blockSize        int
	resources        ResourceConfig
	orderCheck       bool
	postings         merge.PostingsMerger
	codecs           []fastfield.CodecType
	blockCache       termdict.BlockCache
}

// Option configures OpenSegment and Merge.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := lexseg.NewJSONLogger(slog.LevelInfo)
//	stats, _ := lexseg.Merge(ctx, store, inputs, "merged.seg", lexseg.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lexseg.BasicMetricsCollector{}
//	_, _ = lexseg.Merge(ctx, store, inputs, "merged.seg", lexseg.WithMetricsCollector(metrics))
//	fmt.Println(metrics.GetStats().TermsMerged)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithCompression sets the block compression of merged term dictionaries.
// Default: none.
func WithCompression(c termdict.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBlockSize sets the block size of merged term dictionaries.
// Non-positive values select termdict.DefaultBlockSize.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithResourceConfig bounds workers, memory and write throughput of a merge.
func WithResourceConfig(cfg ResourceConfig) Option {
	return func(o *options) {
		o.resources = cfg
	}
}

// WithOrderCheck verifies that input term dictionaries are sorted.
// A violation fails the merge with *ErrUnsortedInput.
func WithOrderCheck() Option {
	return func(o *options) {
		o.orderCheck = true
	}
}

// WithPostingsMerger sets how merged term infos are produced.
// Default: merge.DocFreqMerger.
func WithPostingsMerger(p merge.PostingsMerger) Option {
	return func(o *options) {
		o.postings = p
	}
}

// WithCodecs restricts the codecs considered for merged columns.
func WithCodecs(codecs ...fastfield.CodecType) Option {
	return func(o *options) {
		o.codecs = codecs
	}
}

// WithBlockCache caches decompressed term dictionary blocks of segments
// opened by OpenSegment. Merge streams its inputs once and bypasses it.
//
//	cache := termdict.NewLRUBlockCache(64 << 20)
//	seg, _ := lexseg.OpenSegment(ctx, store, "a.seg", lexseg.WithBlockCache(cache))
func WithBlockCache(c termdict.BlockCache) Option {
	return func(o *options) {
		o.blockCache = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      termdict.CompressionNone,
		blockSize:        termdict.DefaultBlockSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.blockSize <= 0 {
		o.blockSize = termdict.DefaultBlockSize
	}
	return o
}
