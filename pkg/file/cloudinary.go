package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryAPI is the subset of the Cloudinary upload API used by
// CloudinaryStorage. *uploader.API satisfies it.
type CloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryConfig holds media CDN credentials.
type CloudinaryConfig struct {
	CloudName string `env:"CLOUD_NAME" yaml:"cloud_name"`
	APIKey    string `env:"API_KEY" yaml:"api_key"`
	APISecret string `env:"API_SECRET" yaml:"api_secret"`
	// DeliveryURL overrides https://res.cloudinary.com/{cloud}.
	DeliveryURL string `env:"DELIVERY_URL" yaml:"delivery_url"`
}

// CloudinaryStorage implements Backend on the Cloudinary media CDN.
// Deletes are category scoped, so callers should pass the resource type
// returned by Upload.
type CloudinaryStorage struct {
	api         CloudinaryAPI
	deliveryURL string
}

// CloudinaryOption configures CloudinaryStorage.
type CloudinaryOption func(*CloudinaryStorage)

// WithCloudinaryAPI replaces the SDK client. Useful for tests.
func WithCloudinaryAPI(a CloudinaryAPI) CloudinaryOption {
	return func(s *CloudinaryStorage) {
		s.api = a
	}
}

// NewCloudinaryStorage creates a new Cloudinary backend.
func NewCloudinaryStorage(cfg CloudinaryConfig, opts ...CloudinaryOption) (*CloudinaryStorage, error) {
	if cfg.CloudName == "" {
		return nil, fmt.Errorf("%w: cloudinary cloud name is required", ErrInvalidConfig)
	}

	s := &CloudinaryStorage{}
	for _, opt := range opts {
		opt(s)
	}

	if s.api == nil {
		if cfg.APIKey == "" || cfg.APISecret == "" {
			return nil, fmt.Errorf("%w: cloudinary api key and secret are required", ErrInvalidConfig)
		}
		cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		s.api = &cld.Upload
	}

	s.deliveryURL = strings.TrimSuffix(cfg.DeliveryURL, "/")
	if s.deliveryURL == "" {
		s.deliveryURL = "https://res.cloudinary.com/" + cfg.CloudName
	}

	return s, nil
}

// Store uploads the payload. Cloudinary appends the format to image and
// video public ids itself, so the extension is stripped for those.
func (s *CloudinaryStorage) Store(ctx context.Context, data []byte, req *StoreRequest) (*StoredObject, error) {
	publicID := cloudinaryPublicID(req.Key, req.ResourceType)

	resp, err := s.api.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: string(req.ResourceType),
		Overwrite:    api.Bool(req.Overwrite),
		Context:      api.CldAPIMap(userMetadata(req.Metadata)),
	})
	if err != nil {
		return nil, classifyCloudinaryError(err, "upload file")
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty upload response", ErrProviderRejected)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderRejected, resp.Error.Message)
	}

	if resp.PublicID != "" {
		publicID = resp.PublicID
	}
	location := resp.SecureURL
	if location == "" {
		location = s.URL(publicID, req.ResourceType)
	}

	return &StoredObject{Location: location, PublicID: publicID}, nil
}

// Remove destroys an asset. Cloudinary reports a missing asset as the
// "not found" result rather than an error.
func (s *CloudinaryStorage) Remove(ctx context.Context, key string, rt ResourceType) DeleteResult {
	if !rt.Valid() {
		rt = ResourceTypeImage // Cloudinary's own default
	}

	resp, err := s.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: string(rt),
	})
	if err != nil {
		return deleteFailed(classifyCloudinaryError(err, "delete file"))
	}
	if resp == nil {
		return deleteFailed(fmt.Errorf("%w: empty destroy response", ErrProviderRejected))
	}
	if resp.Error.Message != "" {
		return deleteFailed(fmt.Errorf("%w: %s", ErrProviderRejected, resp.Error.Message))
	}

	switch resp.Result {
	case "ok":
		return deleteOK()
	case "not found":
		return deleteNotFound()
	default:
		return deleteFailed(fmt.Errorf("%w: unexpected destroy result %q", ErrProviderRejected, resp.Result))
	}
}

// URL builds a delivery URL without calling the API.
func (s *CloudinaryStorage) URL(publicID string, rt ResourceType) string {
	if !rt.Valid() {
		rt = ResourceTypeImage
	}
	return fmt.Sprintf("%s/%s/upload/%s", s.deliveryURL, rt, strings.TrimPrefix(publicID, "/"))
}

func cloudinaryPublicID(key string, rt ResourceType) string {
	if rt == ResourceTypeRaw {
		return key
	}
	slash := strings.LastIndexByte(key, '/')
	if dot := strings.LastIndexByte(key, '.'); dot > slash {
		return key[:dot]
	}
	return key
}

func classifyCloudinaryError(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation: %w", ErrOperationTimeout, operation, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s operation: %w", ErrOperationCanceled, operation, err)
	}
	return fmt.Errorf("%s operation failed: %w", operation, err)
}
