package distribution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appforms "github.com/formflow/backend/internal/application/forms"
	"github.com/formflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3Uploader implements the ObjectUploader port
var _ appforms.ObjectUploader = (*S3Uploader)(nil)

// S3Uploader pushes generated documents to S3-compatible object storage.
// It works against AWS S3, RustFS, MinIO and similar backends.
type S3Uploader struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3UploaderOption configures the uploader
type S3UploaderOption func(*S3Uploader)

// WithUploaderLogger sets a custom logger for S3Uploader
func WithUploaderLogger(logger *zap.Logger) S3UploaderOption {
	return func(u *S3Uploader) {
		u.logger = logger
	}
}

// NewS3Uploader creates an uploader from storage configuration
func NewS3Uploader(cfg *config.StorageConfig, opts ...S3UploaderOption) (*S3Uploader, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	u := &S3Uploader{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Upload writes the object and returns its bucket-qualified location
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	if len(data) == 0 {
		return "", errors.New("object data is empty")
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	u.logger.Info("object uploaded",
		zap.String("location", location),
		zap.Int("bytes", len(data)))
	return location, nil
}
