// Package blobstore provides access to immutable weight blobs.
//
// A model is published as a set of named blobs (one per layer shard plus a
// manifest). Blobs are written once and never mutated, so implementations
// only need atomic Put semantics and random-access reads.
//
// Implementations:
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem, memory-mapped reads
//   - minio.Store: MinIO and S3-compatible object storage
//   - s3.Store: AWS S3
package blobstore
