// Package s3 stores segments in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("segments/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	seg, err := lexseg.OpenSegment(ctx, store, "00000001.lxs")
//
// Reads are ranged GETs. Writes stream through the multipart upload manager,
// so a segment is published only when its writer is closed.
package s3
