package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures an S3Store. Endpoint is optional and selects an
// S3-compatible service (R2, MinIO) with path-style addressing.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL prefixes returned URLs, e.g. a CDN in front of the bucket.
	PublicBaseURL string
}

// S3Store stores uploads in an S3 bucket.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store builds an S3 client from static credentials.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage.NewS3Store: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	baseURL := cfg.PublicBaseURL
	switch {
	case baseURL != "":
	case cfg.Endpoint != "":
		baseURL = joinURL(cfg.Endpoint, cfg.Bucket)
	default:
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}

	return &S3Store{
		client:  s3.New(opts),
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}, nil
}

// Put uploads body under key and returns its public URL.
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if err := validateKey(key); err != nil {
		return "", fmt.Errorf("storage.S3Store.Put: %w", err)
	}

	// The SDK needs a seekable body to sign the payload and to retry.
	seeker, ok := body.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(io.LimitReader(body, size))
		if err != nil {
			return "", fmt.Errorf("storage.S3Store.Put: read body: %w", err)
		}
		seeker = bytes.NewReader(buf)
		size = int64(len(buf))
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          seeker,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage.S3Store.Put: put object: %w", err)
	}
	return joinURL(s.baseURL, key), nil
}
