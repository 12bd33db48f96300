package file_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadkit/pkg/file"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("detected values", func(t *testing.T) {
		t.Parallel()
		req := file.Normalize(pngHeader, nil)

		assert.Equal(t, file.MIMETypePNG, req.MIMEType)
		assert.Equal(t, "png", req.Extension)
		assert.Equal(t, file.ResourceTypeImage, req.ResourceType)
		assert.Equal(t, int64(len(pngHeader)), req.Size)
		assert.Equal(t, file.Metadata{
			file.MetaMIMEType:     file.MIMETypePNG,
			file.MetaFormat:       "png",
			file.MetaResourceType: file.ResourceTypeImage,
			file.MetaSize:         int64(len(pngHeader)),
		}, req.Metadata)
	})

	t.Run("size is always computed", func(t *testing.T) {
		t.Parallel()
		data := []byte("Hello, World!")
		req := file.Normalize(data, &file.UploadOptions{
			Metadata: file.Metadata{file.MetaSize: 999, file.MetaFormat: "txt"},
		})

		assert.Equal(t, int64(13), req.Metadata[file.MetaSize])
		assert.Equal(t, int64(13), req.Size)
		assert.Equal(t, "txt", req.Metadata[file.MetaFormat])
		assert.Equal(t, file.MIMETypeText, req.MIMEType)
	})

	t.Run("caller values win over detection", func(t *testing.T) {
		t.Parallel()
		req := file.Normalize(pngHeader, &file.UploadOptions{
			Metadata: file.Metadata{
				file.MetaMIMEType:     "image/x-custom",
				file.MetaFormat:       ".PNG8",
				file.MetaResourceType: "raw",
				"owner":               "user-42",
			},
		})

		assert.Equal(t, "image/x-custom", req.MIMEType)
		assert.Equal(t, "png8", req.Extension)
		assert.Equal(t, file.ResourceTypeRaw, req.ResourceType)
		assert.Equal(t, "png8", req.Metadata[file.MetaFormat])
		assert.Equal(t, file.ResourceTypeRaw, req.Metadata[file.MetaResourceType])
		assert.Equal(t, "user-42", req.Metadata["owner"])
	})

	t.Run("invalid overrides keep detected values", func(t *testing.T) {
		t.Parallel()
		req := file.Normalize(pngHeader, &file.UploadOptions{
			Metadata: file.Metadata{
				file.MetaFormat:       "../../etc",
				file.MetaResourceType: "audio",
			},
		})

		assert.Equal(t, "png", req.Extension)
		assert.Equal(t, file.ResourceTypeImage, req.ResourceType)
		assert.Equal(t, "png", req.Metadata[file.MetaFormat])
		assert.Equal(t, file.ResourceTypeImage, req.Metadata[file.MetaResourceType])
	})

	t.Run("resource type option", func(t *testing.T) {
		t.Parallel()
		req := file.Normalize(pngHeader, &file.UploadOptions{ResourceType: file.ResourceTypeRaw})
		assert.Equal(t, file.ResourceTypeRaw, req.ResourceType)

		// An explicit metadata entry beats the option.
		req = file.Normalize(pngHeader, &file.UploadOptions{
			ResourceType: file.ResourceTypeRaw,
			Metadata:     file.Metadata{file.MetaResourceType: file.ResourceTypeVideo},
		})
		assert.Equal(t, file.ResourceTypeVideo, req.ResourceType)

		req = file.Normalize(pngHeader, &file.UploadOptions{ResourceType: "bogus"})
		assert.Equal(t, file.ResourceTypeImage, req.ResourceType)
	})

	t.Run("caller map is not mutated", func(t *testing.T) {
		t.Parallel()
		meta := file.Metadata{file.MetaSize: 1, "tag": "a"}
		opts := &file.UploadOptions{Metadata: meta}

		req := file.Normalize([]byte("abc"), opts)
		req.Metadata["tag"] = "b"

		require.Len(t, meta, 2)
		assert.Equal(t, 1, meta[file.MetaSize])
		assert.Equal(t, "a", meta["tag"])
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		req := file.Normalize(nil, nil)
		assert.Equal(t, file.MIMETypeText, req.MIMEType)
		assert.Equal(t, "txt", req.Extension)
		assert.Equal(t, file.ResourceTypeRaw, req.ResourceType)
		assert.Equal(t, int64(0), req.Size)
	})
}
