// Package blobstore abstracts where segment files live.
//
// A BlobStore hands out immutable blobs for reading and writable blobs that
// become visible only once closed. Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local file system, memory-mapped reads
//   - MemoryStore: in-process map, for tests and tooling
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Blobs that can expose their content without copying implement Mappable;
// segment readers use it to avoid loading a local file into the heap.
package blobstore
