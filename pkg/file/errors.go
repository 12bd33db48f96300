package file

import "errors"

var (
	// Configuration errors, surfaced by New before any I/O.
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrUnsupportedProvider = errors.New("provider not supported")
	ErrFailedToLoadConfig  = errors.New("failed to load AWS config")

	// Security and validation errors
	ErrInvalidPath = errors.New("invalid path") // Prevents path traversal attacks
	ErrFileExists  = errors.New("file already exists")

	// Upload and storage errors
	ErrUploadFailed            = errors.New("upload failed")
	ErrFileNotFound            = errors.New("file not found")
	ErrIsDirectory             = errors.New("path is a directory")
	ErrFailedToWriteFile       = errors.New("failed to write file")
	ErrFailedToDeleteFile      = errors.New("failed to delete file")
	ErrFailedToCreateDirectory = errors.New("failed to create directory")
	ErrFailedToStatPath        = errors.New("failed to stat path")
	ErrFailedToGetAbsolutePath = errors.New("failed to get absolute path")

	// Remote backend errors for proper error classification
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrRequestTimeout     = errors.New("request timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrProviderRejected   = errors.New("provider rejected request")

	// Context and cancellation errors
	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")

	// Metadata index errors
	ErrIndexUnavailable = errors.New("metadata index unavailable")
)
