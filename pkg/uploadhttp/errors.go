package uploadhttp

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/uploadkit/pkg/file"
)

// HTTPError pairs a status code with a stable machine-readable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrBadRequest         = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrInvalidPath        = HTTPError{Code: http.StatusBadRequest, Key: "invalid_path"}
	ErrNotFound           = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrRequestTimeout     = HTTPError{Code: http.StatusRequestTimeout, Key: "request_timeout"}
	ErrConflict           = HTTPError{Code: http.StatusConflict, Key: "file_exists"}
	ErrInternal           = HTTPError{Code: http.StatusInternalServerError, Key: "internal_error"}
	ErrBadGateway         = HTTPError{Code: http.StatusBadGateway, Key: "upload_failed"}
	ErrServiceUnavailable = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
	ErrGatewayTimeout     = HTTPError{Code: http.StatusGatewayTimeout, Key: "gateway_timeout"}
)

// classify maps pipeline errors onto HTTP errors. Order matters: cancellation
// and validation are checked before the generic upload failure.
func classify(err error) HTTPError {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, file.ErrInvalidPath):
		return ErrInvalidPath
	case errors.Is(err, file.ErrFileExists):
		return ErrConflict
	case errors.Is(err, file.ErrOperationCanceled):
		return ErrRequestTimeout
	case errors.Is(err, file.ErrOperationTimeout), errors.Is(err, file.ErrRequestTimeout):
		return ErrGatewayTimeout
	case errors.Is(err, file.ErrServiceUnavailable), errors.Is(err, file.ErrIndexUnavailable):
		return ErrServiceUnavailable
	case errors.Is(err, file.ErrFileNotFound):
		return ErrNotFound
	case errors.Is(err, file.ErrUploadFailed):
		return ErrBadGateway
	default:
		return ErrInternal
	}
}
