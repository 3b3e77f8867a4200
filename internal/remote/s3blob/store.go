// Package s3blob uploads climb photo blobs to S3-compatible object storage.
// The photo sync binding pushes the blob before the photo row, so a row that
// reaches the remote table always points at an existing object.
package s3blob

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cruxlog/cruxlog/internal/remote"
)

// Store wraps an S3 client bound to one bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// New builds a Store from the ambient AWS credential chain. A non-empty
// baseEndpoint points the client at an S3-compatible server (MinIO etc.).
func New(ctx context.Context, region, bucket, baseEndpoint string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if baseEndpoint != "" {
			o.BaseEndpoint = aws.String(baseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{client: client, bucket: bucket}, nil
}

// ObjectKey returns the bucket key for a photo id.
func ObjectKey(photoID string) string {
	return fmt.Sprintf("photos/%s", photoID)
}

// Put uploads the file at path under key. Re-uploading the same file under
// the same key is harmless, which keeps the photo push idempotent.
func (s *Store) Put(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		// A missing local file will not appear on retry.
		return remote.Permanent("photos.blob", err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return remote.Transient("photos.blob", err)
	}
	return nil
}
