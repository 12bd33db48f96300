package file

import (
	"fmt"
	"maps"
)

// NormalizedRequest is the per-call combination of detected and caller values.
type NormalizedRequest struct {
	MIMEType     string
	Extension    string
	ResourceType ResourceType
	Size         int64
	Metadata     Metadata
}

// Normalize merges detected type information, the computed size and caller
// metadata. Precedence, highest first:
//
//  1. the computed size, always len(data);
//  2. caller Metadata entries for the same key;
//  3. opts.ResourceType for the category;
//  4. values detected from data.
//
// opts and its Metadata map are never modified.
func Normalize(data []byte, opts *UploadOptions) *NormalizedRequest {
	if opts == nil {
		opts = &UploadOptions{}
	}

	mimeType := DetectMIMEType(data)
	format := ExtensionFor(mimeType)
	resourceType := ResourceTypeFor(mimeType)
	if opts.ResourceType.Valid() {
		resourceType = opts.ResourceType
	}

	meta := make(Metadata, len(opts.Metadata)+4)
	meta[MetaMIMEType] = mimeType
	meta[MetaFormat] = format
	meta[MetaResourceType] = resourceType
	maps.Copy(meta, opts.Metadata)
	meta[MetaSize] = int64(len(data))

	req := &NormalizedRequest{
		MIMEType:     mimeType,
		Extension:    format,
		ResourceType: resourceType,
		Size:         int64(len(data)),
		Metadata:     meta,
	}

	if v, ok := opts.Metadata[MetaMIMEType]; ok {
		if s := stringValue(v); s != "" {
			req.MIMEType = s
		}
	}
	if v, ok := opts.Metadata[MetaFormat]; ok {
		if ext := sanitizeExtension(stringValue(v)); ext != "" {
			req.Extension = ext
		}
	}
	if v, ok := opts.Metadata[MetaResourceType]; ok {
		if rt := ResourceType(stringValue(v)); rt.Valid() {
			req.ResourceType = rt
		}
	}

	// Keep the mapping consistent with the resolved values.
	meta[MetaFormat] = req.Extension
	meta[MetaResourceType] = req.ResourceType
	meta[MetaMIMEType] = req.MIMEType

	return req
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case ResourceType:
		return string(s)
	case fmt.Stringer:
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
