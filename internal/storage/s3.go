package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

const avatarPrefix = "avatars/"

// S3AvatarStore implements AvatarStore on an S3 bucket.
type S3AvatarStore struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// NewS3AvatarStore creates a store for the given bucket. baseURL overrides the
// default virtual-hosted S3 URL when avatars are served through a CDN; it may
// be empty.
func NewS3AvatarStore(ctx context.Context, region, bucket, baseURL string) (*S3AvatarStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3AvatarStore{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

func (s *S3AvatarStore) Upload(ctx context.Context, contentType string, body io.Reader) (string, string, error) {
	key := avatarPrefix + uuid.NewString() + extensionFor(contentType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload avatar: %w", wrapAPIError(err))
	}

	return s.publicURL(key), key, nil
}

func (s *S3AvatarStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar: %w", wrapAPIError(err))
	}
	return nil
}

func (s *S3AvatarStore) publicURL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// wrapAPIError surfaces the S3 error code when the SDK returns a typed API
// error, keeping log lines actionable.
func wrapAPIError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

var _ AvatarStore = (*S3AvatarStore)(nil)
