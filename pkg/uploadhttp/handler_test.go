package uploadhttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadkit/pkg/file"
	"github.com/dmitrymomot/uploadkit/pkg/uploadhttp"
)

var pngHeader = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
}

type envelope struct {
	Data  json.RawMessage          `json:"data"`
	Error *uploadhttp.ErrorDetail `json:"error"`
}

func newServer(t *testing.T, opts ...uploadhttp.Option) (*httptest.Server, string) {
	t.Helper()
	baseDir := t.TempDir()
	up, err := file.New(context.Background(), file.Config{
		Provider: file.ProviderLocal,
		Local:    file.LocalConfig{BaseDir: baseDir, BaseURL: "/static/"},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(uploadhttp.NewHandler(up, opts...).Routes())
	t.Cleanup(srv.Close)
	return srv, baseDir
}

func do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func uploadRaw(t *testing.T, srv *httptest.Server, query string, body []byte) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/files?"+query, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/octet-stream")
	return do(t, req)
}

func TestUpload(t *testing.T) {
	t.Parallel()

	t.Run("raw body", func(t *testing.T) {
		t.Parallel()
		srv, baseDir := newServer(t)

		code, env := uploadRaw(t, srv, "path=avatars&rename=me&metadata=%7B%22owner%22%3A%2242%22%7D", pngHeader)
		require.Equal(t, http.StatusCreated, code)
		require.Nil(t, env.Error)

		var res file.UploadResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Regexp(t, `^avatars/me-[0-9a-f-]{36}\.png$`, res.PublicID)
		assert.Equal(t, "/static/"+res.PublicID, res.URL)
		assert.Equal(t, file.ResourceTypeImage, res.ResourceType)
		assert.Equal(t, "42", res.Metadata["owner"])
		assert.FileExists(t, filepath.Join(baseDir, res.PublicID))
	})

	t.Run("multipart form", func(t *testing.T) {
		t.Parallel()
		srv, _ := newServer(t)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("rename", "notes"))
		require.NoError(t, mw.WriteField("path", "docs"))
		fw, err := mw.CreateFormFile("file", "notes.bin")
		require.NoError(t, err)
		_, err = fw.Write([]byte("Hello, World!"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/files", &body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		code, env := do(t, req)
		require.Equal(t, http.StatusCreated, code)

		var res file.UploadResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Regexp(t, `^docs/notes-[0-9a-f-]{36}\.txt$`, res.PublicID)
		assert.Equal(t, float64(13), res.Metadata[file.MetaSize])
	})

	t.Run("multipart without file", func(t *testing.T) {
		t.Parallel()
		srv, _ := newServer(t)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("rename", "x"))
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/files", &body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		code, env := do(t, req)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "bad_request", env.Error.Code)
	})

	t.Run("traversal", func(t *testing.T) {
		t.Parallel()
		srv, _ := newServer(t)

		code, env := uploadRaw(t, srv, "path=../../sensitive", []byte("x"))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "invalid_path", env.Error.Code)
	})

	t.Run("fixed id conflict", func(t *testing.T) {
		t.Parallel()
		srv, _ := newServer(t)

		code, _ := uploadRaw(t, srv, "public_id=logo.png", pngHeader)
		require.Equal(t, http.StatusCreated, code)

		code, env := uploadRaw(t, srv, "public_id=logo.png", pngHeader)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "file_exists", env.Error.Code)

		code, _ = uploadRaw(t, srv, "public_id=logo.png&overwrite=true", pngHeader)
		assert.Equal(t, http.StatusCreated, code)
	})

	t.Run("invalid options", func(t *testing.T) {
		t.Parallel()
		srv, _ := newServer(t)

		code, _ := uploadRaw(t, srv, "overwrite=maybe", pngHeader)
		assert.Equal(t, http.StatusBadRequest, code)

		code, _ = uploadRaw(t, srv, "metadata=%5B1%5D", pngHeader)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	code, env := uploadRaw(t, srv, "path=tmp", []byte("bye"))
	require.Equal(t, http.StatusCreated, code)
	var res file.UploadResult
	require.NoError(t, json.Unmarshal(env.Data, &res))

	deleteOnce := func() (int, map[string]string) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/files/"+res.PublicID, nil)
		require.NoError(t, err)
		code, env := do(t, req)
		var body map[string]string
		require.NoError(t, json.Unmarshal(env.Data, &body))
		return code, body
	}

	code, body := deleteOnce()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["result"])
	assert.Equal(t, res.PublicID, body["public_id"])

	code, body = deleteOnce()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "not_found", body["result"])
}

func TestDeleteDirectoryIsAnError(t *testing.T) {
	t.Parallel()
	srv, baseDir := newServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "folder"), 0755))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/files/folder", nil)
	require.NoError(t, err)
	code, env := do(t, req)
	assert.Equal(t, http.StatusInternalServerError, code)
	require.NotNil(t, env.Error)
	assert.Contains(t, string(env.Data), `"result":"error"`)
}

func TestDeleteMany(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	var ids []string
	for range 3 {
		code, env := uploadRaw(t, srv, "", []byte("payload"))
		require.Equal(t, http.StatusCreated, code)
		var res file.UploadResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		ids = append(ids, res.PublicID)
	}

	payload, err := json.Marshal(map[string]any{"public_ids": append(ids, "missing.txt", "../x")})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/batch/delete", bytes.NewReader(payload))
	require.NoError(t, err)

	code, env := do(t, req)
	require.Equal(t, http.StatusOK, code)

	var out map[string]struct {
		Result string `json:"result"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out, 5)
	for _, id := range ids {
		assert.Equal(t, "ok", out[id].Result)
	}
	assert.Equal(t, "not_found", out["missing.txt"].Result)
	assert.Equal(t, "error", out["../x"].Result)
	assert.Equal(t, "invalid_path", out["../x"].Error)

	req, err = http.NewRequest(http.MethodPost, srv.URL+"/batch/delete", strings.NewReader(`{"public_ids":[]}`))
	require.NoError(t, err)
	code, _ = do(t, req)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestURLAndInfo(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/urls/a/b.png", nil)
	require.NoError(t, err)
	code, env := do(t, req)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"public_id":"a/b.png","url":"/static/a/b.png"}`, string(env.Data))

	// No index is configured.
	req, err = http.NewRequest(http.MethodGet, srv.URL+"/files/a/b.png", nil)
	require.NoError(t, err)
	code, env = do(t, req)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service_unavailable", env.Error.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, uploadhttp.WithReadinessCheck(func(context.Context) error {
		return errors.New("index down")
	}))

	resp, err := http.Get(srv.URL + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReserved(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		want   bool
	}{
		{"/files/", true},
		{"/files", true},
		{"/files/avatars/", true},
		{"/batch/", true},
		{"/health/", true},
		{"/", true},
		{"/static/", false},
		{"/filestore/", false},
		{"/media", false},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, uploadhttp.Reserved(tt.prefix))
		})
	}
}
