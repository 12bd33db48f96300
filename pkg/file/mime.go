package file

import "strings"

// ResourceType is the coarse category category-aware backends route on.
type ResourceType string

const (
	ResourceTypeImage ResourceType = "image"
	ResourceTypeVideo ResourceType = "video"
	ResourceTypeRaw   ResourceType = "raw"
)

// Valid reports whether rt is one of the known resource types.
func (rt ResourceType) Valid() bool {
	switch rt {
	case ResourceTypeImage, ResourceTypeVideo, ResourceTypeRaw:
		return true
	default:
		return false
	}
}

func (rt ResourceType) String() string { return string(rt) }

// defaultExtension is used when nothing better can be derived.
const defaultExtension = "bin"

var mimeExtensions = map[string]string{
	// Images
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/bmp":     "bmp",
	"image/svg+xml": "svg",
	"image/tiff":    "tiff",
	"image/x-icon":  "ico",
	"image/heic":    "heic",
	"image/avif":    "avif",

	// Video
	"video/mp4":        "mp4",
	"video/mpeg":       "mpeg",
	"video/webm":       "webm",
	"video/ogg":        "ogv",
	"video/quicktime":  "mov",
	"video/x-msvideo":  "avi",
	"video/x-matroska": "mkv",
	"video/3gpp":       "3gp",

	// Audio
	"audio/mpeg":  "mp3",
	"audio/wav":   "wav",
	"audio/wave":  "wav",
	"audio/ogg":   "ogg",
	"audio/aac":   "aac",
	"audio/flac":  "flac",
	"audio/webm":  "weba",
	"audio/mp4":   "m4a",
	"audio/x-m4a": "m4a",

	// Text and documents
	"text/plain":             "txt",
	"text/html":              "html",
	"text/css":               "css",
	"text/csv":               "csv",
	"text/markdown":          "md",
	"text/javascript":        "js",
	"application/javascript": "js",
	"application/json":       "json",
	"application/xml":        "xml",
	"text/xml":               "xml",
	"application/pdf":        "pdf",
	"application/rtf":        "rtf",
	"application/msword":     "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",

	// Archives
	"application/zip":              "zip",
	"application/x-rar-compressed": "rar",
	"application/vnd.rar":          "rar",
	"application/x-7z-compressed":  "7z",
	"application/gzip":             "gz",
	"application/x-tar":            "tar",
}

// ExtensionFor returns the canonical extension, without the leading dot, for a
// content type. Unknown types fall back to the cleaned MIME subtype and finally
// to "bin". The result is never empty and never contains '/', ';' or spaces.
//
// Example:
//
//	file.ExtensionFor("image/jpeg")               // "jpg"
//	file.ExtensionFor("application/x-custom; v=1") // "x-custom"
//	file.ExtensionFor("application/octet-stream") // "bin"
func ExtensionFor(mimeType string) string {
	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}

	base := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if ext, ok := mimeExtensions[base]; ok {
		return ext
	}

	_, subtype, ok := strings.Cut(base, "/")
	if !ok || subtype == "octet-stream" || !isExtensionToken(subtype) {
		return defaultExtension
	}
	return subtype
}

// ResourceTypeFor derives the resource category from a content type prefix.
func ResourceTypeFor(mimeType string) ResourceType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ResourceTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return ResourceTypeVideo
	default:
		return ResourceTypeRaw
	}
}

// isExtensionToken accepts lowercase alphanumerics plus '+', '-' and '.',
// without a leading dot.
func isExtensionToken(s string) bool {
	if s == "" || s[0] == '.' {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}

// sanitizeExtension normalizes a caller-supplied format into a safe token.
func sanitizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimPrefix(ext, ".")
	if !isExtensionToken(ext) {
		return ""
	}
	return ext
}
