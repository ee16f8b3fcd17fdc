package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Uploader stores images in Amazon S3 (or compatible APIs).
type S3Uploader struct {
	client *s3.Client
	up     *manager.Uploader

	// region and endpoint shape the public URL when no explicit base is set
	region        string
	endpoint      string
	publicBaseURL string
}

type S3Options struct {
	Region        string
	Endpoint      string
	PublicBaseURL string
}

func NewS3Uploader(client *s3.Client, opts S3Options) *S3Uploader {
	return &S3Uploader{
		client:        client,
		up:            manager.NewUploader(client),
		region:        opts.Region,
		endpoint:      opts.Endpoint,
		publicBaseURL: strings.TrimSuffix(opts.PublicBaseURL, "/"),
	}
}

func (s *S3Uploader) UploadImage(ctx context.Context, data []byte, opts UploadOptions) (string, error) {
	if opts.Bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image payload is empty")
	}

	key, contentType := objectKey(opts.KeyPrefix, data)

	_, err := s.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	return s.publicURL(opts.Bucket, key), nil
}

func (s *S3Uploader) publicURL(bucket, key string) string {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
	}
	if s.endpoint != "" {
		// custom endpoints (e.g. S3-compatible stores) use path style
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.endpoint, "/"), bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key)
}

var _ Uploader = (*S3Uploader)(nil)
