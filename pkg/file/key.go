package file

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DefaultBaseName is used when the caller gives no rename hint.
const DefaultBaseName = "file"

// IDGenerator produces uniquifiers for storage keys.
type IDGenerator func() string

// KeyBuilder derives collision-resistant storage keys.
type KeyBuilder struct {
	newID IDGenerator
}

// NewKeyBuilder creates a KeyBuilder. A nil generator falls back to random
// UUIDv4 strings.
func NewKeyBuilder(gen IDGenerator) *KeyBuilder {
	if gen == nil {
		gen = uuid.NewString
	}
	return &KeyBuilder{newID: gen}
}

// Build returns "{path}/{base}-{id}.{ext}", omitting the folder when empty.
// A fixed opts.PublicID is returned verbatim after path validation.
// Fails with ErrInvalidPath when the destination escapes the storage root.
func (b *KeyBuilder) Build(opts UploadOptions, ext string) (string, error) {
	if opts.PublicID != "" {
		key, err := CleanPath(opts.PublicID)
		if err != nil {
			return "", err
		}
		if key == "" {
			return "", fmt.Errorf("%w: empty public id", ErrInvalidPath)
		}
		return key, nil
	}

	dir, err := CleanPath(opts.Path)
	if err != nil {
		return "", err
	}

	base := opts.Rename
	if base == "" {
		base = DefaultBaseName
	}
	if strings.ContainsAny(base, "/\\\x00") {
		return "", fmt.Errorf("%w: rename %q contains path separators", ErrInvalidPath, base)
	}

	if ext = sanitizeExtension(ext); ext == "" {
		ext = defaultExtension
	}

	name := fmt.Sprintf("%s-%s.%s", base, b.newID(), ext)
	if dir == "" {
		return name, nil
	}
	return dir + "/" + name, nil
}

// CleanPath normalizes a relative storage path without touching the
// filesystem: backslashes become slashes, redundant separators and "."
// segments collapse, and leading slashes are dropped. Paths that resolve
// above the root fail with ErrInvalidPath.
//
// Example:
//
//	file.CleanPath("a//b/./c/")       // "a/b/c", nil
//	file.CleanPath("../../sensitive") // "", ErrInvalidPath
func CleanPath(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}

	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}

	cleaned = strings.TrimLeft(cleaned, "/")
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}
