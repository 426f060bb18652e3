package promcollector

import (
	"time"

	"github.com/hupe1980/lexseg"
	"github.com/hupe1980/lexseg/fastfield"
	"github.com/prometheus/client_golang/prometheus"
)

var _ lexseg.MetricsCollector = (*Collector)(nil)

// Collector is a lexseg.MetricsCollector backed by Prometheus metrics.
type Collector struct {
	opLatency    *prometheus.HistogramVec
	ops          *prometheus.CounterVec
	bytesRead    prometheus.Counter
	bytesWritten prometheus.Counter
	docsMerged   prometheus.Counter
	mergeInputs  prometheus.Histogram
	terms        *prometheus.CounterVec
	columns      *prometheus.CounterVec
	columnBytes  *prometheus.CounterVec
	sectionTime  *prometheus.HistogramVec
}

// Options configures a Collector.
type Options struct {
	// Namespace prefixes every metric name. Default: "lexseg".
	Namespace string

	// Buckets are the latency histogram buckets in seconds.
	// Default: prometheus.DefBuckets.
	Buckets []float64
}

// New creates a Collector and registers its metrics with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, optFns ...func(o *Options)) (*Collector, error) {
	opts := Options{
		Namespace: "lexseg",
		Buckets:   prometheus.DefBuckets,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := opts.Namespace

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "operation_latency_seconds",
			Help:      "Latency of segment opens and merges",
			Buckets:   opts.Buckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "operations_total",
			Help:      "Segment opens and merges",
		}, []string{"op", "status"}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "segment_bytes_opened_total",
			Help:      "Bytes of segments opened",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "merge_bytes_written_total",
			Help:      "Bytes of merged segments written",
		}),
		docsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "merge_docs_total",
			Help:      "Documents written to merged segments",
		}),
		mergeInputs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "merge_inputs",
			Help:      "Number of segments per merge",
			Buckets:   prometheus.LinearBuckets(2, 2, 8),
		}),
		terms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "merge_terms_total",
			Help:      "Terms written to merged dictionaries",
		}, []string{"field"}),
		columns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "merge_columns_total",
			Help:      "Columns encoded by merges",
		}, []string{"codec"}),
		columnBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "merge_column_bytes_total",
			Help:      "Encoded column bytes",
		}, []string{"codec"}),
		sectionTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "merge_section_seconds",
			Help:      "Time spent merging a single section",
			Buckets:   opts.Buckets,
		}, []string{"kind"}),
	}

	for _, m := range []prometheus.Collector{
		c.opLatency, c.ops, c.bytesRead, c.bytesWritten, c.docsMerged,
		c.mergeInputs, c.terms, c.columns, c.columnBytes, c.sectionTime,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordOpen implements lexseg.MetricsCollector.
func (c *Collector) RecordOpen(bytes int, d time.Duration, err error) {
	s := status(err)
	c.ops.WithLabelValues("open", s).Inc()
	c.opLatency.WithLabelValues("open", s).Observe(d.Seconds())
	c.bytesRead.Add(float64(bytes))
}

// RecordMerge implements lexseg.MetricsCollector.
func (c *Collector) RecordMerge(inputs int, docs uint32, bytes uint64, d time.Duration, err error) {
	s := status(err)
	c.ops.WithLabelValues("merge", s).Inc()
	c.opLatency.WithLabelValues("merge", s).Observe(d.Seconds())
	c.mergeInputs.Observe(float64(inputs))
	c.docsMerged.Add(float64(docs))
	c.bytesWritten.Add(float64(bytes))
}

// RecordTerms implements lexseg.MetricsCollector.
func (c *Collector) RecordTerms(field string, terms uint64, d time.Duration) {
	c.terms.WithLabelValues(field).Add(float64(terms))
	c.sectionTime.WithLabelValues("terms").Observe(d.Seconds())
}

// RecordColumn implements lexseg.MetricsCollector.
func (c *Collector) RecordColumn(_ string, codec fastfield.CodecType, bytes int, d time.Duration) {
	c.columns.WithLabelValues(codec.String()).Inc()
	c.columnBytes.WithLabelValues(codec.String()).Add(float64(bytes))
	c.sectionTime.WithLabelValues("column").Observe(d.Seconds())
}
