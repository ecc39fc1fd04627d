package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the archive bucket.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ArchiveService is the public interface of the whiteboard snapshot archive.
// Snapshots are stored as JSON objects in an S3-compatible bucket, one latest
// object per room.
type ArchiveService interface {
	// UploadSnapshot stores the snapshot JSON for a room, replacing any
	// previous snapshot for the same room.
	UploadSnapshot(ctx context.Context, roomID string, data []byte) error

	// PresignDownload generates a pre-signed URL for fetching an archived
	// snapshot directly from the bucket.
	PresignDownload(ctx context.Context, roomID string, duration time.Duration) (string, error)
}

// NewArchiveService is the factory function for ArchiveService.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewArchiveService(cfg ServiceConfig) (ArchiveService, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(cfg)
}
