// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified read-only interface
// used by the ingestion pipeline to pull CSV drops from a bucket. The
// abstraction supports both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it
// easy to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, "ingest-drops")
package storage
