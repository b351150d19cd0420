// Package s3 implements a blobstore.BlobStore backed by AWS S3.
package s3
