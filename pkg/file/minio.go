package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient is the subset of *minio.Client used by MinIOStorage.
type MinIOClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinIOConfig defines the configuration options for the MinIO backend.
type MinIOConfig struct {
	Endpoint  string `env:"ENDPOINT" yaml:"endpoint"` // e.g. "localhost:9000"
	AccessKey string `env:"ACCESS_KEY" yaml:"access_key"`
	SecretKey string `env:"SECRET_KEY" yaml:"secret_key"`
	Bucket    string `env:"BUCKET" yaml:"bucket"`
	UseSSL    bool   `env:"USE_SSL" yaml:"use_ssl"`
	BaseURL   string `env:"BASE_URL" yaml:"base_url"`
}

// MinIOStorage implements Backend on top of a MinIO server.
type MinIOStorage struct {
	client  MinIOClient
	bucket  string
	baseURL string
}

// MinIOOption configures MinIOStorage.
type MinIOOption func(*MinIOStorage)

// WithMinIOClient replaces the client built from the config. Useful for tests.
func WithMinIOClient(client MinIOClient) MinIOOption {
	return func(s *MinIOStorage) {
		s.client = client
	}
}

// NewMinIOStorage creates a new MinIO backend.
func NewMinIOStorage(cfg MinIOConfig, opts ...MinIOOption) (*MinIOStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", ErrInvalidConfig)
	}

	s := &MinIOStorage{bucket: cfg.Bucket}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, fmt.Errorf("%w: minio access key and secret key are required", ErrInvalidConfig)
		}
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		s.client = client
	}

	s.baseURL = cfg.BaseURL
	if s.baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		s.baseURL = fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
	}
	if !strings.HasSuffix(s.baseURL, "/") {
		s.baseURL += "/"
	}

	return s, nil
}

// Store uploads the payload with its detected content type.
func (s *MinIOStorage) Store(ctx context.Context, data []byte, req *StoreRequest) (*StoredObject, error) {
	opts := minio.PutObjectOptions{
		ContentType:  req.MIMEType,
		UserMetadata: userMetadata(req.Metadata),
	}
	if !req.Overwrite {
		opts.SetMatchETagExcept("*")
	}

	_, err := s.client.PutObject(ctx, s.bucket, req.Key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return nil, classifyMinIOError(err, "upload file")
	}
	return &StoredObject{Location: s.URL(req.Key, req.ResourceType)}, nil
}

// Remove stats the object first so a missing key maps to DeleteNotFound;
// RemoveObject itself succeeds for absent keys.
func (s *MinIOStorage) Remove(ctx context.Context, key string, _ ResourceType) DeleteResult {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isMinIONotFound(err) {
			return deleteNotFound()
		}
		return deleteFailed(classifyMinIOError(err, "check file"))
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return deleteFailed(classifyMinIOError(err, "delete file"))
	}
	return deleteOK()
}

// Exists checks if an object exists in the bucket.
func (s *MinIOStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isMinIONotFound(err) {
		return false, nil
	}
	return false, classifyMinIOError(err, "check file")
}

// URL returns the public URL for an object.
func (s *MinIOStorage) URL(key string, _ ResourceType) string {
	return s.baseURL + strings.TrimPrefix(key, "/")
}

func isMinIONotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound" || resp.StatusCode == http.StatusNotFound
}

func classifyMinIOError(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation: %w", ErrOperationTimeout, operation, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation: %w", ErrOperationCanceled, operation, err)
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %v", ErrFileNotFound, err)
	case "NoSuchBucket":
		return ErrBucketNotFound
	case "AccessDenied":
		return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
	case "PreconditionFailed":
		return fmt.Errorf("%w: %s operation: %v", ErrFileExists, operation, err)
	case "SlowDown", "ServiceUnavailable":
		return fmt.Errorf("%w: %s operation", ErrServiceUnavailable, operation)
	}
	return fmt.Errorf("%s operation failed: %w", operation, err)
}
