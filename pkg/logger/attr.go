package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Provider records the storage provider tag under the key "provider".
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// PublicID records a storage key under the key "public_id".
func PublicID(id string) slog.Attr {
	return slog.String("public_id", id)
}

// MIMEType records a detected or declared content type under the key "mime_type".
func MIMEType(mimeType string) slog.Attr {
	return slog.String("mime_type", mimeType)
}

// Size records a payload size in bytes under the key "size".
func Size(n int64) slog.Attr {
	return slog.Int64("size", n)
}

// DeleteResult records a delete outcome under the key "delete_result".
func DeleteResult(result string) slog.Attr {
	return slog.String("delete_result", result)
}

// Duration records an elapsed time under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
