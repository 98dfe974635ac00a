// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the
// operations needed to stage bucket inventory exports: checking bucket access,
// listing inventory partitions, streaming symlink manifests, and server-side
// copying of inventory data files into the work area. This abstraction
// supports both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it
// easier to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to a bucket.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//   - GetObject: Retrieves content as a stream.
//   - PutObject: Uploads content (with size and options).
//   - CopyObject: Server-side copy between buckets, avoiding local round-trips.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "my-inventory-bucket")
package storage
