// Package lexseg merges the immutable segments of a lexical search index.
//
// A segment holds, per field, a sorted term dictionary and a fast-field
// column of one uint64 per document, plus an optional bitmap of deleted
// documents. Merging concatenates the live documents of the inputs: term
// dictionaries are merged in key order with a k-way heap merge and columns
// are re-encoded, picking the GCD codec when it is smaller than plain
// bit-packing.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./segments")
//
//	stats, err := lexseg.Merge(ctx, store, []string{"a.seg", "b.seg"}, "merged.seg",
//	    lexseg.WithCompression(termdict.CompressionZSTD),
//	    lexseg.WithResourceConfig(lexseg.ResourceConfig{MaxWorkers: 4}),
//	)
//
//	seg, err := lexseg.OpenSegment(ctx, store, "merged.seg")
//	defer seg.Close()
//	prices, err := seg.Column("price")
//	fmt.Println(prices.Get(0))
//
// Segments may live in any blobstore.BlobStore: the local file system
// (memory-mapped), memory, Amazon S3 (blobstore/s3) or any S3-compatible
// service (blobstore/minio).
//
// Lookups in compressed term dictionaries decompress one block per call. A
// termdict.LRUBlockCache passed with WithBlockCache keeps decompressed blocks
// across OpenSegment calls.
//
// # Packages
//
//   - fastfield: column codecs (bit-packed, GCD) and GCD detection
//   - termdict: term dictionary format and the k-way term stream merger
//   - segment: segment file writer and reader
//   - merge: the merge driver used by Merge
//   - metrics/promcollector: a Prometheus MetricsCollector
package lexseg
