/*
Package storage implements the whiteboard snapshot archive over S3-compatible
object storage. The archive is a secondary, best-effort sink: the relational
store holds the snapshot of record, and the bucket holds an exportable JSON
copy per room.
*/
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"eventlive/internal/pkg/logx"
)

const snapshotContentType = "application/json"

// s3Client implements the ArchiveService interface, handling interactions with S3-compatible storage.
type s3Client struct {
	cfg      ServiceConfig
	s3Client *s3.Client
	uploader *manager.Uploader
}

// newS3Client initializes the S3 client using a custom configuration that supports S3-compatible endpoints.
func newS3Client(cfg ServiceConfig) (*s3Client, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		s3Client: client,
		uploader: manager.NewUploader(client),
	}, nil
}

// snapshotKey maps a canonical room key to its object key. Room keys contain
// a namespace colon ("whiteboard:42") which is awkward in object paths, so it
// is flattened to a slash.
func snapshotKey(roomID string) string {
	return fmt.Sprintf("snapshots/%s.json", strings.ReplaceAll(roomID, ":", "/"))
}

// UploadSnapshot stores the snapshot JSON for a room, replacing any previous object.
func (c *s3Client) UploadSnapshot(ctx context.Context, roomID string, data []byte) error {
	key := snapshotKey(roomID)
	contentType := snapshotContentType

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &c.cfg.S3BucketName,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})

	if err != nil {
		logx.Error(err, "Failed to upload snapshot to archive", "room", roomID, "key", key)
		return errors.New("failed to upload snapshot to archive")
	}

	return nil
}

// PresignDownload generates a presigned URL for fetching the archived snapshot of a room.
func (c *s3Client) PresignDownload(ctx context.Context, roomID string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(c.s3Client)

	key := snapshotKey(roomID)
	presignInput := &s3.GetObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	}

	resp, err := presignClient.PresignGetObject(ctx, presignInput, s3.WithPresignExpires(duration))
	if err != nil {
		logx.Error(err, "Failed to generate presigned snapshot URL", "room", roomID, "key", key)
		return "", errors.New("failed to generate presigned URL")
	}

	return resp.URL, nil
}
