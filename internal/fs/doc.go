// Package fs abstracts the file system operations of the local blob store
// so tests can inject failures.
//
// Production code uses [Default] (a [LocalFS]). Tests wrap it in a
// [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.Inject(fs.Fault{Op: fs.OpSync, Pattern: ".tmp-"})
//
// Reads go through memory maps and are not covered.
package fs
