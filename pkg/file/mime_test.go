package file_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/uploadkit/pkg/file"
)

func TestExtensionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mimeType string
		want     string
	}{
		{"image/jpeg", "jpg"},
		{"image/png", "png"},
		{"image/gif", "gif"},
		{"image/webp", "webp"},
		{"image/bmp", "bmp"},
		{"image/svg+xml", "svg"},
		{"video/mp4", "mp4"},
		{"video/quicktime", "mov"},
		{"application/pdf", "pdf"},
		{"application/zip", "zip"},
		{"application/x-rar-compressed", "rar"},
		{"text/plain", "txt"},
		{"application/json", "json"},
		{"text/plain; charset=utf-8", "txt"},
		{"IMAGE/PNG", "png"},
		{"application/x-custom; v=1", "x-custom"},
		{"application/vnd.api+json", "vnd.api+json"},
		{"application/octet-stream", "bin"},
		{"", "bin"},
		{"garbage", "bin"},
		{"application/", "bin"},
		{"application/has space", "bin"},
		{"application/.hidden", "bin"},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			t.Parallel()
			got := file.ExtensionFor(tt.mimeType)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
			assert.False(t, strings.ContainsAny(got, "/; "))
		})
	}
}

func TestResourceTypeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, file.ResourceTypeImage, file.ResourceTypeFor("image/png"))
	assert.Equal(t, file.ResourceTypeImage, file.ResourceTypeFor("image/svg+xml"))
	assert.Equal(t, file.ResourceTypeVideo, file.ResourceTypeFor("video/mp4"))
	assert.Equal(t, file.ResourceTypeRaw, file.ResourceTypeFor("application/pdf"))
	assert.Equal(t, file.ResourceTypeRaw, file.ResourceTypeFor("text/plain"))
	assert.Equal(t, file.ResourceTypeRaw, file.ResourceTypeFor("audio/mpeg"))
	assert.Equal(t, file.ResourceTypeRaw, file.ResourceTypeFor(""))
}

func TestResourceType_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, file.ResourceTypeImage.Valid())
	assert.True(t, file.ResourceTypeVideo.Valid())
	assert.True(t, file.ResourceTypeRaw.Valid())
	assert.False(t, file.ResourceType("").Valid())
	assert.False(t, file.ResourceType("audio").Valid())
	assert.Equal(t, "video", file.ResourceTypeVideo.String())
}
