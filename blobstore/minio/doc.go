// Package minio stores segments in MinIO or any other S3-compatible service
// (Ceph, Garage, SeaweedFS) through the MinIO client.
//
//	store, err := minio.New("localhost:9000", "segments",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("index-a/"),
//	)
//
// An existing client can be wrapped with NewStore instead.
package minio
