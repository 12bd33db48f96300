package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalConfig configures the local filesystem backend.
type LocalConfig struct {
	BaseDir string `env:"BASE_DIR" envDefault:"./uploads" yaml:"base_dir"`
	// BaseURL is the URL prefix for serving files (e.g., "/static/").
	// Without it the upload location is the absolute file path.
	BaseURL string `env:"BASE_URL" yaml:"base_url"`
	// DirPerm defaults to 0755.
	DirPerm fs.FileMode `yaml:"-"`
}

// LocalStorage implements Backend for the local filesystem.
// All operations are confined to baseDir to prevent path traversal attacks.
type LocalStorage struct {
	baseDir  string // Absolute path - all files stored within this directory
	baseURL  string
	dirPerm  fs.FileMode
	filePerm fs.FileMode
}

// LocalOption defines a function that configures LocalStorage.
type LocalOption func(*LocalStorage)

// WithLocalFilePerm sets the permission bits of written files (default 0644).
func WithLocalFilePerm(perm fs.FileMode) LocalOption {
	return func(s *LocalStorage) {
		s.filePerm = perm
	}
}

// NewLocalStorage creates a new local filesystem backend.
// The base directory is resolved to an absolute path and created if missing.
func NewLocalStorage(cfg LocalConfig, opts ...LocalOption) (*LocalStorage, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("%w: local base directory is required", ErrInvalidConfig)
	}

	absBaseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve base directory: %v", ErrFailedToGetAbsolutePath, err)
	}

	dirPerm := cfg.DirPerm
	if dirPerm == 0 {
		dirPerm = 0755
	}
	if err := os.MkdirAll(absBaseDir, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	baseURL := cfg.BaseURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	s := &LocalStorage{
		baseDir:  absBaseDir,
		baseURL:  baseURL,
		dirPerm:  dirPerm,
		filePerm: 0644,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// BaseDir returns the absolute storage root.
func (s *LocalStorage) BaseDir() string { return s.baseDir }

// Store writes the whole payload to a temporary file next to the target and
// renames it into place, so a failed upload leaves nothing behind.
func (s *LocalStorage) Store(ctx context.Context, data []byte, req *StoreRequest) (*StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := s.resolvePath(req.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), s.dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, s.filePerm)
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = publish(tmpName, absPath, req.Overwrite)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileExists, req.Key)
		}
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	location := absPath
	if s.baseURL != "" {
		location = s.URL(req.Key, req.ResourceType)
	}
	return &StoredObject{Location: location}, nil
}

// publish moves tmp to target. Without overwrite it hard-links, which fails
// with fs.ErrExist when target is already taken, then drops tmp.
func publish(tmp, target string, overwrite bool) error {
	if overwrite {
		return os.Rename(tmp, target)
	}
	if err := os.Link(tmp, target); err != nil {
		return err
	}
	return os.Remove(tmp)
}

// Remove deletes a single file. Directories are never removed.
func (s *LocalStorage) Remove(ctx context.Context, key string, _ ResourceType) DeleteResult {
	if err := ctx.Err(); err != nil {
		return deleteFailed(err)
	}

	absPath, err := s.resolvePath(key)
	if err != nil {
		return deleteFailed(err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return deleteNotFound()
		}
		return deleteFailed(fmt.Errorf("%w: %v", ErrFailedToStatPath, err))
	}

	// Safety check - prevent accidental directory deletion
	if info.IsDir() {
		return deleteFailed(fmt.Errorf("%w: %s", ErrIsDirectory, key))
	}

	if err := os.Remove(absPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return deleteNotFound()
		}
		return deleteFailed(fmt.Errorf("%w: %v", ErrFailedToDeleteFile, err))
	}

	return deleteOK()
}

// Exists checks if a file or directory exists under the root.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	absPath, err := s.resolvePath(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(absPath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
}

// URL returns the public URL for a file.
func (s *LocalStorage) URL(key string, _ ResourceType) string {
	key = filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(key, "/") {
		return key
	}
	return s.baseURL + key
}

// resolvePath validates and resolves a key within the base directory.
func (s *LocalStorage) resolvePath(key string) (string, error) {
	rel, err := CleanPath(key)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidPath)
	}

	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToGetAbsolutePath, err)
	}

	// Ensure path stays within baseDir
	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	return absPath, nil
}
