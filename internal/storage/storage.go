// Package storage uploads files to an S3 compatible object store and builds
// their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/iliyamo/cleaning-booking/internal/config"
)

// Uploader is the blob store seen by the services.
type Uploader interface {
	// Upload stores body under bucket/key and returns its public URL.
	Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (string, error)
	PublicURL(bucket, key string) string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 is the Uploader backed by aws-sdk-go-v2.
type S3 struct {
	client  objectPutter
	baseURL string
	region  string
}

// NewS3 builds a client for cfg. A custom endpoint (MinIO, Supabase, R2)
// is honoured together with path-style addressing.
func NewS3(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3(client, cfg), nil
}

func newS3(client objectPutter, cfg config.StorageConfig) *S3 {
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" && cfg.Endpoint != "" {
		base = strings.TrimRight(cfg.Endpoint, "/")
	}
	return &S3{client: client, baseURL: base, region: cfg.Region}
}

func (s *S3) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return s.PublicURL(bucket, key), nil
}

// PublicURL returns the URL an object is served from.
func (s *S3) PublicURL(bucket, key string) string {
	escaped := escapeKey(key)
	if s.baseURL == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, escaped)
	}
	return s.baseURL + "/" + bucket + "/" + escaped
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
