// Package uploadhttp serves a file.Uploader over HTTP with a chi router.
//
// Uploads accept either a raw request body or a multipart form with a "file"
// part. Options come from query parameters or form fields: path, rename,
// public_id, overwrite, resource_type and metadata (a JSON object).
//
//	curl -X POST 'localhost:8080/files?path=avatars&rename=me' --data-binary @me.png
//
// Every JSON body uses the {"data": ..., "error": {"code", "message"}}
// envelope. Deletes answer 200 for both "ok" and "not_found" results.
package uploadhttp
