package file_test

import (
	"fmt"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadkit/pkg/file"
)

// sequence returns a deterministic IDGenerator: id-1, id-2, ...
func sequence() file.IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

var uuidKey = regexp.MustCompile(`^file-[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\.png$`)

func TestKeyBuilder_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts file.UploadOptions
		ext  string
		want string
	}{
		{"defaults", file.UploadOptions{}, "png", "file-id-1.png"},
		{"rename", file.UploadOptions{Rename: "test-image"}, "png", "test-image-id-1.png"},
		{"path and rename", file.UploadOptions{Rename: "test-file", Path: "test-folder"}, "txt", "test-folder/test-file-id-1.txt"},
		{"nested path is normalized", file.UploadOptions{Path: "/a//b/./c/"}, "pdf", "a/b/c/file-id-1.pdf"},
		{"backslashes", file.UploadOptions{Path: `users\42`}, "jpg", "users/42/file-id-1.jpg"},
		{"inner parent stays inside", file.UploadOptions{Path: "a/../b"}, "zip", "b/file-id-1.zip"},
		{"dot path is root", file.UploadOptions{Path: "."}, "gif", "file-id-1.gif"},
		{"empty extension falls back", file.UploadOptions{}, "", "file-id-1.bin"},
		{"invalid extension falls back", file.UploadOptions{}, "p/n g", "file-id-1.bin"},
		{"dotted extension", file.UploadOptions{}, ".PNG", "file-id-1.png"},
		{"fixed public id", file.UploadOptions{PublicID: "avatars/user-42.png", Rename: "ignored"}, "jpg", "avatars/user-42.png"},
		{"fixed public id is cleaned", file.UploadOptions{PublicID: "/avatars//user-42.png"}, "png", "avatars/user-42.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := file.NewKeyBuilder(sequence())
			got, err := b.Build(tt.opts, tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyBuilder_BuildRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts file.UploadOptions
	}{
		{"parent traversal", file.UploadOptions{Path: "../../sensitive"}},
		{"bare parent", file.UploadOptions{Path: ".."}},
		{"windows traversal", file.UploadOptions{Path: `..\..\windows`}},
		{"escaping after descent", file.UploadOptions{Path: "a/../../b"}},
		{"nul byte", file.UploadOptions{Path: "a\x00b"}},
		{"rename with slash", file.UploadOptions{Rename: "../evil"}},
		{"rename with backslash", file.UploadOptions{Rename: `a\b`}},
		{"public id traversal", file.UploadOptions{PublicID: "../etc/passwd"}},
		{"public id resolves to root", file.UploadOptions{PublicID: "/./"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			b := file.NewKeyBuilder(func() string { calls++; return "x" })
			_, err := b.Build(tt.opts, "png")
			assert.ErrorIs(t, err, file.ErrInvalidPath)
			assert.Zero(t, calls)
		})
	}
}

func TestKeyBuilder_Unique(t *testing.T) {
	t.Parallel()

	b := file.NewKeyBuilder(nil)
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		key, err := b.Build(file.UploadOptions{}, "png")
		require.NoError(t, err)
		assert.Regexp(t, uuidKey, key)
		_, dup := seen[key]
		require.False(t, dup, "duplicate key %s", key)
		seen[key] = struct{}{}
	}
}

func TestCleanPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{".", ""},
		{"/", ""},
		{"a", "a"},
		{"a//b/./c/", "a/b/c"},
		{"/abs/path", "abs/path"},
		{`mixed\sep/path`, "mixed/sep/path"},
		{"a/b/../c", "a/c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := file.CleanPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"..", "../x", "a/../../x", "\x00", `..\x`} {
		_, err := file.CleanPath(bad)
		assert.ErrorIs(t, err, file.ErrInvalidPath, bad)
	}
}
