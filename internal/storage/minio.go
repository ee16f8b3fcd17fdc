package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioUploader stores images in a MinIO deployment.
type MinioUploader struct {
	client   *minio.Client
	endpoint string
	secure   bool
}

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func NewMinioUploader(opts MinioOptions) (*MinioUploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioUploader{
		client:   client,
		endpoint: opts.Endpoint,
		secure:   opts.UseSSL,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *MinioUploader) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (m *MinioUploader) UploadImage(ctx context.Context, data []byte, opts UploadOptions) (string, error) {
	if opts.Bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image payload is empty")
	}

	key, contentType := objectKey(opts.KeyPrefix, data)

	_, err := m.client.PutObject(ctx, opts.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	scheme := "http"
	if m.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.endpoint, opts.Bucket, key), nil
}

var _ Uploader = (*MinioUploader)(nil)
