package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/uploadkit/pkg/logger"
)

// Provider tags the storage backend bound by New.
type Provider string

const (
	ProviderLocal      Provider = "local"
	ProviderS3         Provider = "s3"
	ProviderMinIO      Provider = "minio"
	ProviderCloudinary Provider = "cloudinary"
	// ProviderCustom marks uploaders built with NewWithBackend.
	ProviderCustom Provider = "custom"
)

const defaultDeleteConcurrency = 8

// Uploader is the backend-agnostic entry point. It is immutable after
// construction and safe for concurrent use.
type Uploader struct {
	backend           Backend
	provider          Provider
	keys              *KeyBuilder
	now               Clock
	log               *slog.Logger
	index             MetadataIndex
	deleteConcurrency int
}

// Option configures an Uploader.
type Option func(*options)

type options struct {
	logger            *slog.Logger
	idGenerator       IDGenerator
	clock             Clock
	index             MetadataIndex
	deleteConcurrency int
	localOptions      []LocalOption
	s3Options         []S3Option
	minioOptions      []MinIOOption
	cloudinaryOptions []CloudinaryOption
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIDGenerator replaces the random uniquifier source, e.g. with a
// deterministic sequence in tests.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		o.idGenerator = gen
	}
}

// WithClock sets the time source used for the uploadedAt attribute.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithIndex records every upload in idx and drops entries on delete.
func WithIndex(idx MetadataIndex) Option {
	return func(o *options) {
		o.index = idx
	}
}

// WithDeleteConcurrency bounds the number of in-flight deletes in DeleteMany.
func WithDeleteConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.deleteConcurrency = n
		}
	}
}

// WithLocalOptions forwards options to NewLocalStorage.
func WithLocalOptions(opts ...LocalOption) Option {
	return func(o *options) {
		o.localOptions = append(o.localOptions, opts...)
	}
}

// WithS3Options forwards options to NewS3Storage.
func WithS3Options(opts ...S3Option) Option {
	return func(o *options) {
		o.s3Options = append(o.s3Options, opts...)
	}
}

// WithMinIOOptions forwards options to NewMinIOStorage.
func WithMinIOOptions(opts ...MinIOOption) Option {
	return func(o *options) {
		o.minioOptions = append(o.minioOptions, opts...)
	}
}

// WithCloudinaryOptions forwards options to NewCloudinaryStorage.
func WithCloudinaryOptions(opts ...CloudinaryOption) Option {
	return func(o *options) {
		o.cloudinaryOptions = append(o.cloudinaryOptions, opts...)
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:            slog.New(slog.DiscardHandler),
		clock:             time.Now,
		deleteConcurrency: defaultDeleteConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New binds the backend selected by cfg.Provider. An unknown provider fails
// with ErrUnsupportedProvider (wrapped in ErrInvalidConfig) before any I/O.
//
// Example:
//
//	up, err := file.New(ctx, file.Config{
//		Provider: file.ProviderLocal,
//		Local:    file.LocalConfig{BaseDir: "./uploads", BaseURL: "/static/"},
//	})
func New(ctx context.Context, cfg Config, opts ...Option) (*Uploader, error) {
	if !cfg.Provider.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnsupportedProvider, cfg.Provider)
	}

	o := newOptions(opts)

	var (
		backend Backend
		err     error
	)
	switch cfg.Provider {
	case ProviderLocal:
		backend, err = NewLocalStorage(cfg.Local, o.localOptions...)
	case ProviderS3:
		backend, err = NewS3Storage(ctx, cfg.S3, o.s3Options...)
	case ProviderMinIO:
		backend, err = NewMinIOStorage(cfg.MinIO, o.minioOptions...)
	case ProviderCloudinary:
		backend, err = NewCloudinaryStorage(cfg.Cloudinary, o.cloudinaryOptions...)
	}
	if err != nil {
		return nil, err
	}

	if o.index == nil && cfg.Index.RedisURL != "" {
		idx, err := connectRedisIndex(ctx, cfg.Index)
		if err != nil {
			return nil, err
		}
		o.index = idx
	}

	return newUploader(backend, cfg.Provider, o), nil
}

// NewWithBackend binds a pre-built backend.
func NewWithBackend(b Backend, opts ...Option) (*Uploader, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: backend is nil", ErrInvalidConfig)
	}
	return newUploader(b, ProviderCustom, newOptions(opts)), nil
}

func newUploader(b Backend, p Provider, o *options) *Uploader {
	return &Uploader{
		backend:           b,
		provider:          p,
		keys:              NewKeyBuilder(o.idGenerator),
		now:               o.clock,
		log:               o.logger.With(logger.Component("uploader"), logger.Provider(string(p))),
		index:             o.index,
		deleteConcurrency: o.deleteConcurrency,
	}
}

// Provider returns the bound provider tag.
func (u *Uploader) Provider() Provider { return u.provider }

// Backend returns the bound backend.
func (u *Uploader) Backend() Backend { return u.backend }

// Upload stores data under a freshly generated key. Content type, extension
// and category are detected from data; opts may override them.
//
// Errors: ErrInvalidPath when opts.Path escapes the storage root (no I/O is
// attempted), ErrFileExists for a taken fixed PublicID without Overwrite,
// ErrOperationCanceled or ErrOperationTimeout when ctx ends, and
// ErrUploadFailed wrapping any other backend failure.
func (u *Uploader) Upload(ctx context.Context, data []byte, opts *UploadOptions) (*UploadResult, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(err, "upload")
	}

	req := Normalize(data, opts)

	key, err := u.keys.Build(*opts, req.Extension)
	if err != nil {
		u.log.WarnContext(ctx, "upload rejected", logger.Error(err))
		return nil, err
	}

	fixed := opts.PublicID != ""
	if fixed && !opts.Overwrite {
		if checker, ok := u.backend.(ExistenceChecker); ok {
			exists, err := checker.Exists(ctx, key)
			if err != nil {
				return nil, u.uploadError(ctx, key, err)
			}
			if exists {
				return nil, fmt.Errorf("%w: %s", ErrFileExists, key)
			}
		}
	}

	start := time.Now()
	stored, err := u.backend.Store(ctx, data, &StoreRequest{
		Key:               key,
		Overwrite:         !fixed || opts.Overwrite,
		NormalizedRequest: req,
	})
	if err != nil {
		return nil, u.uploadError(ctx, key, err)
	}
	if stored == nil {
		return nil, u.uploadError(ctx, key, errors.New("backend returned no stored object"))
	}

	publicID := key
	if stored.PublicID != "" {
		publicID = stored.PublicID
	}

	meta := maps.Clone(req.Metadata)
	meta[MetaUploadedAt] = u.now()

	res := &UploadResult{
		URL:          stored.Location,
		PublicID:     publicID,
		ResourceType: req.ResourceType,
		Metadata:     meta,
	}

	if u.index != nil {
		if err := u.index.Put(ctx, res); err != nil {
			u.log.WarnContext(ctx, "failed to index upload", logger.PublicID(publicID), logger.Error(err))
		}
	}

	u.log.DebugContext(ctx, "file uploaded",
		logger.PublicID(publicID),
		logger.MIMEType(req.MIMEType),
		logger.Size(req.Size),
		logger.Duration(time.Since(start)),
	)

	return res, nil
}

// uploadError keeps cancellation and validation failures distinct and wraps
// everything else in ErrUploadFailed.
func (u *Uploader) uploadError(ctx context.Context, key string, err error) error {
	switch {
	case errors.Is(err, ErrOperationCanceled), errors.Is(err, ErrOperationTimeout),
		errors.Is(err, ErrInvalidPath), errors.Is(err, ErrFileExists):
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		err = contextError(err, "upload")
	case ctx.Err() != nil:
		err = contextError(ctx.Err(), "upload")
	default:
		err = fmt.Errorf("%w: %s: %w", ErrUploadFailed, key, err)
	}
	u.log.ErrorContext(ctx, "upload failed", logger.PublicID(key), logger.Error(err))
	return err
}

// Delete removes publicID. It never panics or returns a Go error: a missing
// object is DeleteNotFound and every other failure is DeleteError with Err set,
// so cleanup loops can carry on past individual failures.
func (u *Uploader) Delete(ctx context.Context, publicID string, opts *DeleteOptions) DeleteResult {
	key, err := CleanPath(publicID)
	if err == nil && key == "" {
		err = fmt.Errorf("%w: empty public id", ErrInvalidPath)
	}
	if err != nil {
		u.log.WarnContext(ctx, "delete rejected", logger.PublicID(publicID), logger.Error(err))
		return deleteFailed(err)
	}
	if err := ctx.Err(); err != nil {
		return deleteFailed(contextError(err, "delete"))
	}

	var rt ResourceType
	if opts != nil {
		rt = opts.ResourceType
	}

	res := u.backend.Remove(ctx, key, rt)
	switch res.Result {
	case DeleteOK, DeleteNotFound:
		if u.index != nil {
			if err := u.index.Remove(ctx, key); err != nil {
				u.log.WarnContext(ctx, "failed to drop index entry", logger.PublicID(key), logger.Error(err))
			}
		}
		u.log.DebugContext(ctx, "file deleted", logger.PublicID(key), logger.DeleteResult(string(res.Result)))
	default:
		res.Result = DeleteError
		switch {
		case res.Err == nil:
			res.Err = ErrFailedToDeleteFile
		case errors.Is(res.Err, context.Canceled), errors.Is(res.Err, context.DeadlineExceeded):
			res.Err = contextError(res.Err, "delete")
		}
		u.log.ErrorContext(ctx, "delete failed", logger.PublicID(key), logger.Error(res.Err))
	}

	return res
}

// DeleteMany deletes ids concurrently and reports every outcome. Failures do
// not stop the batch.
func (u *Uploader) DeleteMany(ctx context.Context, ids []string, opts *DeleteOptions) map[string]DeleteResult {
	results := make(map[string]DeleteResult, len(ids))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(u.deleteConcurrency)

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			res := u.Delete(ctx, id, opts)
			mu.Lock()
			results[id] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// URL returns the public location of publicID. Backends without URL support
// return publicID unchanged. No I/O is performed.
func (u *Uploader) URL(publicID string, opts *URLOptions) string {
	b, ok := u.backend.(URLBuilder)
	if !ok {
		return publicID
	}
	var rt ResourceType
	if opts != nil {
		rt = opts.ResourceType
	}
	return b.URL(publicID, rt)
}

// Info returns the indexed result of a previous upload.
func (u *Uploader) Info(ctx context.Context, publicID string) (*UploadResult, error) {
	if u.index == nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, ErrIndexUnavailable)
	}
	return u.index.Get(ctx, publicID)
}

// Ready is a readiness probe. It fails when the configured index implements
// Ping and the ping fails; uploaders without an index are always ready.
func (u *Uploader) Ready(ctx context.Context) error {
	p, ok := u.index.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

func contextError(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation: %w", ErrOperationTimeout, operation, err)
	}
	return fmt.Errorf("%w: %s operation: %w", ErrOperationCanceled, operation, err)
}
