package uploadhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/uploadkit/pkg/file"
	"github.com/dmitrymomot/uploadkit/pkg/httpserver"
	"github.com/dmitrymomot/uploadkit/pkg/logger"
)

// Uploader is the part of *file.Uploader the API serves.
type Uploader interface {
	Upload(ctx context.Context, data []byte, opts *file.UploadOptions) (*file.UploadResult, error)
	Delete(ctx context.Context, publicID string, opts *file.DeleteOptions) file.DeleteResult
	DeleteMany(ctx context.Context, ids []string, opts *file.DeleteOptions) map[string]file.DeleteResult
	URL(publicID string, opts *file.URLOptions) string
	Info(ctx context.Context, publicID string) (*file.UploadResult, error)
}

const (
	defaultMaxMemory = 32 << 20
	formFileField    = "file"
)

// Handler exposes an Uploader over HTTP.
type Handler struct {
	up        Uploader
	log       *slog.Logger
	maxMemory int64
	checks    []func(context.Context) error
}

// Option configures Handler.
type Option func(*Handler)

// WithLogger sets the logger for request and health-check lines.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithMaxMemory sets how much of a multipart body is held in memory before
// spilling to temporary files.
func WithMaxMemory(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxMemory = n
		}
	}
}

// WithReadinessCheck adds a dependency probe to /health/ready.
func WithReadinessCheck(check func(context.Context) error) Option {
	return func(h *Handler) {
		if check != nil {
			h.checks = append(h.checks, check)
		}
	}
}

// NewHandler creates a Handler.
func NewHandler(up Uploader, opts ...Option) *Handler {
	h := &Handler{
		up:        up,
		log:       slog.New(slog.DiscardHandler),
		maxMemory: defaultMaxMemory,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("uploadhttp"))
	return h
}

// routeRoots are the leading path segments owned by Routes.
var routeRoots = []string{"/files/", "/batch/", "/urls/", "/health/"}

// Reserved reports whether a path prefix overlaps a route served by Routes.
// "/" overlaps everything.
func Reserved(prefix string) bool {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	for _, root := range routeRoots {
		if strings.HasPrefix(prefix, root) || strings.HasPrefix(root, prefix) {
			return true
		}
	}
	return false
}

// Routes returns the API router:
//
//	POST   /files          upload (raw body or multipart "file" field)
//	GET    /files/{id...}  indexed upload info
//	DELETE /files/{id...}  delete
//	POST   /batch/delete   delete many
//	GET    /urls/{id...}   public URL
//	GET    /health/live    liveness probe
//	GET    /health/ready   readiness probe
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Post("/files", h.upload)
	r.Get("/files/*", h.info)
	r.Delete("/files/*", h.delete)
	r.Post("/batch/delete", h.deleteMany)
	r.Get("/urls/*", h.url)
	r.Get("/health/live", httpserver.HealthCheckHandler(h.log))
	r.Get("/health/ready", httpserver.HealthCheckHandler(h.log, h.checks...))

	return r
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	data, err := h.readPayload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	opts, err := uploadOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.up.Upload(r.Context(), data, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

// readPayload returns the multipart "file" part or, for any other content
// type, the raw request body.
func (h *Handler) readPayload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrBadRequest, err)
		}
		return data, nil
	}

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	f, _, err := r.FormFile(formFileField)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %q form file", ErrBadRequest, formFileField)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read form file: %v", ErrBadRequest, err)
	}
	return data, nil
}

// uploadOptions reads options from query parameters or form fields.
// "metadata" is a JSON object.
func uploadOptions(r *http.Request) (*file.UploadOptions, error) {
	opts := &file.UploadOptions{
		Rename:       r.FormValue("rename"),
		Path:         r.FormValue("path"),
		PublicID:     r.FormValue("public_id"),
		ResourceType: file.ResourceType(r.FormValue("resource_type")),
	}

	if v := r.FormValue("overwrite"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: overwrite must be a boolean", ErrBadRequest)
		}
		opts.Overwrite = b
	}

	if v := r.FormValue("metadata"); v != "" {
		if err := json.Unmarshal([]byte(v), &opts.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata must be a JSON object", ErrBadRequest)
		}
	}

	return opts, nil
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	id, err := publicID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.up.Info(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

type deleteResponse struct {
	PublicID string            `json:"public_id"`
	Result   file.DeleteStatus `json:"result"`
}

// delete answers 200 for both "ok" and "not_found"; only the error variant
// maps to an error status.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := publicID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res := h.up.Delete(r.Context(), id, &file.DeleteOptions{
		ResourceType: file.ResourceType(r.URL.Query().Get("resource_type")),
	})
	body := deleteResponse{PublicID: id, Result: res.Result}
	if res.Result != file.DeleteError {
		writeData(w, http.StatusOK, body)
		return
	}

	httpErr := classify(res.Err)
	writeJSON(w, httpErr.Code, JSONResponse{
		Data:  body,
		Error: &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)},
	})
}

type deleteManyRequest struct {
	PublicIDs    []string          `json:"public_ids"`
	ResourceType file.ResourceType `json:"resource_type"`
}

type deleteManyItem struct {
	Result file.DeleteStatus `json:"result"`
	Error  string            `json:"error,omitempty"`
}

func (h *Handler) deleteMany(w http.ResponseWriter, r *http.Request) {
	var req deleteManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}
	if len(req.PublicIDs) == 0 {
		writeError(w, fmt.Errorf("%w: public_ids is required", ErrBadRequest))
		return
	}

	results := h.up.DeleteMany(r.Context(), req.PublicIDs, &file.DeleteOptions{ResourceType: req.ResourceType})

	out := make(map[string]deleteManyItem, len(results))
	for id, res := range results {
		item := deleteManyItem{Result: res.Result}
		if res.Err != nil {
			item.Error = classify(res.Err).Key
		}
		out[id] = item
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) url(w http.ResponseWriter, r *http.Request) {
	id, err := publicID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	u := h.up.URL(id, &file.URLOptions{ResourceType: file.ResourceType(r.URL.Query().Get("resource_type"))})
	writeData(w, http.StatusOK, map[string]string{"public_id": id, "url": u})
}

func publicID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "*")
	id, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: public id is required", ErrBadRequest)
	}
	return id, nil
}

// requestLogger logs one line per request with its status and latency.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		h.log.Log(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			logger.Duration(time.Since(start)),
		)
	})
}
