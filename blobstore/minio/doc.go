// Package minio implements a blobstore.BlobStore backed by MinIO or any
// S3-compatible object storage.
package minio
