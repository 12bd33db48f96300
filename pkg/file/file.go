package file

import (
	"context"
	"time"
)

// Metadata keys the pipeline reads and writes.
const (
	MetaMIMEType     = "mimetype"
	MetaFormat       = "format"
	MetaResourceType = "resourceType"
	MetaSize         = "size"
	MetaUploadedAt   = "uploadedAt"
)

// Metadata is a free-form attribute mapping attached to an upload.
type Metadata map[string]any

// UploadOptions holds optional caller intent for a single upload.
// The pipeline never mutates it.
type UploadOptions struct {
	// Rename is the base filename hint. Defaults to "file".
	Rename string
	// Path is the destination folder relative to the storage root.
	Path string
	// Metadata entries override detected values for the same key,
	// except "size" which is always computed from the payload.
	Metadata Metadata
	// ResourceType overrides the detected category.
	ResourceType ResourceType
	// PublicID fixes the storage key verbatim and bypasses the uniquifier.
	PublicID string
	// Overwrite allows replacing an existing object stored under PublicID.
	Overwrite bool
}

// DeleteOptions hints category-scoped delete APIs.
type DeleteOptions struct {
	ResourceType ResourceType
}

// URLOptions hints category-scoped URL construction.
type URLOptions struct {
	ResourceType ResourceType
}

// UploadResult describes a stored object.
type UploadResult struct {
	URL          string       `json:"url"`
	PublicID     string       `json:"public_id"`
	ResourceType ResourceType `json:"resource_type"`
	Metadata     Metadata     `json:"metadata"`
}

// Size returns the payload size recorded in the metadata.
func (r *UploadResult) Size() int64 {
	switch v := r.Metadata[MetaSize].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64: // decoded from JSON
		return int64(v)
	default:
		return 0
	}
}

// Format returns the resolved extension recorded in the metadata.
func (r *UploadResult) Format() string {
	s, _ := r.Metadata[MetaFormat].(string)
	return s
}

// DeleteStatus is the tri-state outcome of a delete.
type DeleteStatus string

const (
	DeleteOK       DeleteStatus = "ok"
	DeleteNotFound DeleteStatus = "not_found"
	DeleteError    DeleteStatus = "error"
)

// DeleteResult reports a delete outcome. "Not found" is a normal result, not a
// failure; Err is set only for the DeleteError status.
type DeleteResult struct {
	Result DeleteStatus
	Err    error
}

// OK reports whether the object was removed by this call.
func (r DeleteResult) OK() bool { return r.Result == DeleteOK }

func deleteOK() DeleteResult       { return DeleteResult{Result: DeleteOK} }
func deleteNotFound() DeleteResult { return DeleteResult{Result: DeleteNotFound} }
func deleteFailed(err error) DeleteResult {
	return DeleteResult{Result: DeleteError, Err: err}
}

// StoreRequest is what a backend receives: the final key plus the normalized
// request. Backends must treat it as read-only.
type StoreRequest struct {
	Key string
	// Overwrite is false only for caller-fixed keys without Overwrite set.
	Overwrite bool
	*NormalizedRequest
}

// StoredObject is a backend's raw answer to Store.
type StoredObject struct {
	// Location is a URL or an equivalent locator.
	Location string
	// PublicID overrides the requested key when the backend assigns its own.
	PublicID string
}

// Backend is the capability contract every storage provider implements.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Store writes data under req.Key.
	Store(ctx context.Context, data []byte, req *StoreRequest) (*StoredObject, error)
	// Remove deletes key. A missing object is DeleteNotFound, never an error.
	Remove(ctx context.Context, key string, rt ResourceType) DeleteResult
}

// URLBuilder is an optional Backend capability.
type URLBuilder interface {
	URL(key string, rt ResourceType) string
}

// ExistenceChecker is an optional Backend capability used by the overwrite guard.
type ExistenceChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// MetadataIndex records upload results outside the storage backend.
type MetadataIndex interface {
	Put(ctx context.Context, res *UploadResult) error
	Get(ctx context.Context, publicID string) (*UploadResult, error)
	Remove(ctx context.Context, publicID string) error
}

// Clock returns the current time. Injected for deterministic tests.
type Clock func() time.Time
