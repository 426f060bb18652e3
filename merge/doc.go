// Package merge combines several segments into one.
//
// The merged segment numbers its documents by walking the inputs in order and
// skipping deleted documents, so it carries no deletes of its own:
//
//	stats, err := merge.Segments(ctx, []*segment.Reader{a, b, c}, out,
//	    merge.WithResources(resource.NewController(resource.Config{MaxWorkers: 4})),
//	)
//
// Term dictionaries are merged field by field with termdict.Merger, and the
// TermInfo of every merged term is produced by a PostingsMerger. Columns are
// gathered and re-encoded in parallel, each with a fresh codec choice, and
// written in field order.
package merge
