package file

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/uploadkit/pkg/config"
)

// Config selects a provider and carries the settings for each backend.
// Only the payload matching Provider is read.
//
// Environment variables use the UPLOAD_ prefix, e.g. UPLOAD_PROVIDER=s3,
// UPLOAD_S3_BUCKET, UPLOAD_LOCAL_BASE_DIR, UPLOAD_INDEX_REDIS_URL.
type Config struct {
	Provider   Provider         `env:"UPLOAD_PROVIDER" envDefault:"local" yaml:"provider"`
	Local      LocalConfig      `envPrefix:"UPLOAD_LOCAL_" yaml:"local"`
	S3         S3Config         `envPrefix:"UPLOAD_S3_" yaml:"s3"`
	MinIO      MinIOConfig      `envPrefix:"UPLOAD_MINIO_" yaml:"minio"`
	Cloudinary CloudinaryConfig `envPrefix:"UPLOAD_CLOUDINARY_" yaml:"cloudinary"`
	Index      IndexConfig      `envPrefix:"UPLOAD_INDEX_" yaml:"index"`
}

// Valid reports whether p names a backend New can build.
func (p Provider) Valid() bool {
	switch p {
	case ProviderLocal, ProviderS3, ProviderMinIO, ProviderCloudinary:
		return true
	default:
		return false
	}
}

// NewFromEnv loads Config from the environment (and a .env file when
// present) and calls New.
func NewFromEnv(ctx context.Context, opts ...Option) (*Uploader, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return New(ctx, cfg, opts...)
}

// LoadConfigFile reads Config from a YAML file.
//
// Example file:
//
//	provider: s3
//	s3:
//	  bucket: media
//	  region: eu-central-1
func LoadConfigFile(path string) (Config, error) {
	cfg := Config{
		Provider: ProviderLocal,
		Local:    LocalConfig{BaseDir: "./uploads"},
	}
	if err := config.LoadYAML(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}
