// Package file stores uploaded payloads behind one API regardless of where
// they end up: the local filesystem, Amazon S3 (or any S3-compatible
// service), a MinIO server, or the Cloudinary media CDN.
//
// # Pipeline
//
// Every Upload runs the same steps before touching a backend:
//
//  1. DetectMIMEType inspects the leading bytes of the payload. Caller
//     supplied content types are never trusted for detection.
//  2. ExtensionFor and ResourceTypeFor map the content type to a file
//     extension and a coarse category (image, video, raw).
//  3. Normalize merges detected values with caller metadata. Caller entries
//     win, except "size" which is always the payload length.
//  4. KeyBuilder produces "{path}/{rename}-{uuid}.{ext}" and rejects paths
//     that escape the storage root with ErrInvalidPath.
//
// The backend then writes the bytes and returns a location. Deletes report a
// tri-state DeleteResult (ok, not_found, error) instead of failing for
// missing objects.
//
// # Usage
//
//	up, err := file.New(ctx, file.Config{
//		Provider: file.ProviderLocal,
//		Local:    file.LocalConfig{BaseDir: "./uploads", BaseURL: "/static/"},
//	}, file.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	res, err := up.Upload(ctx, data, &file.UploadOptions{
//		Rename: "avatar",
//		Path:   "users/42",
//	})
//	// res.PublicID: "users/42/avatar-<uuid>.png"
//	// res.URL:      "/static/users/42/avatar-<uuid>.png"
//
//	switch up.Delete(ctx, res.PublicID, nil).Result {
//	case file.DeleteOK, file.DeleteNotFound:
//	case file.DeleteError:
//		// retry later
//	}
//
// Configuration can also come from the environment (NewFromEnv, UPLOAD_*
// variables) or a YAML file (LoadConfigFile).
//
// # Metadata index
//
// When Config.Index.RedisURL is set, or WithIndex is passed, every upload
// result is recorded in Redis and can be read back with Uploader.Info.
// Index failures are logged and never fail an upload or delete.
//
// # Errors
//
// All failures wrap package sentinels, so callers branch with errors.Is:
// ErrInvalidConfig, ErrUnsupportedProvider, ErrInvalidPath, ErrFileExists,
// ErrUploadFailed, ErrOperationCanceled, ErrOperationTimeout and others.
package file
