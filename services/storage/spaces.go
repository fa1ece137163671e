package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/coinacademy/api/config"
)

// SpacesClient uploads payment-evidence screenshots to an S3-compatible
// object store
type SpacesClient struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
}

// NewSpacesClient creates a client from environment configuration.
// Returns an error when the bucket is not configured; callers may run
// without screenshot storage.
func NewSpacesClient() (*SpacesClient, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	if getEnv.SPACES_BUCKET == "" || getEnv.SPACES_REGION == "" {
		return nil, fmt.Errorf("SPACES_BUCKET and SPACES_REGION must be configured")
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			getEnv.SPACES_ACCESS_KEY,
			getEnv.SPACES_SECRET_KEY,
			"",
		),
		Endpoint:         aws.String(getEnv.SPACES_ENDPOINT),
		Region:           aws.String(getEnv.SPACES_REGION),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return &SpacesClient{
		s3Client: s3.New(sess),
		bucket:   getEnv.SPACES_BUCKET,
		endpoint: getEnv.SPACES_ENDPOINT,
	}, nil
}

// UploadFile uploads a file and returns its URL. Screenshots stay
// private; admins fetch them through the API, not a public URL.
func (s *SpacesClient) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("private"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key), nil
}

// UploadBytes uploads bytes and returns the object URL
func (s *SpacesClient) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return s.UploadFile(ctx, key, bytes.NewReader(data), contentType)
}

// DeleteFile removes an object
func (s *SpacesClient) DeleteFile(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
