// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/convert-relay/internal/upload"
	"github.com/pdiddy/convert-relay/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeConverter records calls and returns a canned URL or error.
type fakeConverter struct {
	mu    sync.Mutex
	url   string
	err   error
	calls []fakeCall
	// seen lists the upload directory contents observed during the call.
	seen []string
	dir  string
}

type fakeCall struct {
	name         string
	data         []byte
	targetFormat string
}

func (f *fakeConverter) Convert(_ context.Context, name string, data []byte, targetFormat string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{name: name, data: data, targetFormat: targetFormat})
	if f.dir != "" {
		entries, _ := os.ReadDir(f.dir)
		for _, e := range entries {
			f.seen = append(f.seen, e.Name())
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type formFile struct {
	field   string
	name    string
	content []byte
}

// newMultipart encodes fields and an optional file as a multipart body.
func newMultipart(t *testing.T, fields map[string]string, file *formFile) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func setup(t *testing.T, conv *fakeConverter) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := upload.NewStore(dir)
	require.NoError(t, err)
	conv.dir = dir

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.POST("/convert", NewHandler(conv, store, logger).Convert)
	return r, dir
}

func do(t *testing.T, r http.Handler, body io.Reader, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got), "body: %s", w.Body.String())
	return w, got
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestConvertSuccess(t *testing.T) {
	conv := &fakeConverter{url: "https://cdn.example/out.pdf"}
	r, dir := setup(t, conv)

	body, ct := newMultipart(t,
		map[string]string{FieldTargetFormat: "pdf"},
		&formFile{field: FieldFile, name: "report.docx", content: []byte("docx bytes")},
	)
	w, got := do(t, r, body, ct)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"downloadUrl": "https://cdn.example/out.pdf"}, got)

	require.Len(t, conv.calls, 1)
	assert.Equal(t, "report.docx", conv.calls[0].name)
	assert.Equal(t, "docx bytes", string(conv.calls[0].data))
	assert.Equal(t, "pdf", conv.calls[0].targetFormat)

	// The upload existed while the provider was called and is gone afterwards.
	assert.Len(t, conv.seen, 1)
	assert.Empty(t, dirEntries(t, dir))
}

func TestConvertMissingParameters(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		file   *formFile
	}{
		{
			name:   "missing file",
			fields: map[string]string{FieldTargetFormat: "pdf"},
		},
		{
			name: "missing target format",
			file: &formFile{field: FieldFile, name: "report.docx", content: []byte("x")},
		},
		{
			name:   "empty target format",
			fields: map[string]string{FieldTargetFormat: ""},
			file:   &formFile{field: FieldFile, name: "report.docx", content: []byte("x")},
		},
		{
			name:   "file under wrong field",
			fields: map[string]string{FieldTargetFormat: "pdf"},
			file:   &formFile{field: "document", name: "report.docx", content: []byte("x")},
		},
		{
			name: "nothing at all",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{url: "https://cdn.example/out.pdf"}
			r, dir := setup(t, conv)

			body, ct := newMultipart(t, tt.fields, tt.file)
			w, got := do(t, r, body, ct)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, map[string]any{"message": MsgMissingParams}, got)
			assert.Empty(t, conv.calls, "provider must not be called")
			assert.Empty(t, dirEntries(t, dir))
		})
	}
}

func TestConvertNotMultipart(t *testing.T) {
	conv := &fakeConverter{url: "u"}
	r, _ := setup(t, conv)

	w, got := do(t, r, bytes.NewBufferString(`{"target_format":"pdf"}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgMissingParams, got["message"])
	assert.Empty(t, conv.calls)
}

func TestConvertUpstreamFailure(t *testing.T) {
	conv := &fakeConverter{err: errors.New("Request failed with status code 503")}
	r, dir := setup(t, conv)

	body, ct := newMultipart(t,
		map[string]string{FieldTargetFormat: "pdf"},
		&formFile{field: FieldFile, name: "report.docx", content: []byte("x")},
	)
	w, got := do(t, r, body, ct)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{
		"message": MsgFailed,
		"error":   "Request failed with status code 503",
	}, got)
	require.Len(t, conv.calls, 1)

	// Cleanup runs on the failure path too.
	assert.Empty(t, dirEntries(t, dir))
}

func TestConvertIndependentCalls(t *testing.T) {
	conv := &fakeConverter{url: "https://cdn.example/out.pdf"}
	r, dir := setup(t, conv)

	for i := 0; i < 2; i++ {
		body, ct := newMultipart(t,
			map[string]string{FieldTargetFormat: "pdf"},
			&formFile{field: FieldFile, name: "report.docx", content: []byte("same")},
		)
		w, _ := do(t, r, body, ct)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Len(t, conv.calls, 2)
	assert.Empty(t, dirEntries(t, dir))
}

func TestConvertTooLarge(t *testing.T) {
	conv := &fakeConverter{url: "u"}
	dir := t.TempDir()
	store, err := upload.NewStore(dir)
	require.NoError(t, err)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 512)
		c.Next()
	})
	r.POST("/convert", NewHandler(conv, store, nil).Convert)

	body, ct := newMultipart(t,
		map[string]string{FieldTargetFormat: "pdf"},
		&formFile{field: FieldFile, name: "big.bin", content: bytes.Repeat([]byte("a"), 4096)},
	)
	w, got := do(t, r, body, ct)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, MsgTooLarge, got["message"])
	assert.Empty(t, conv.calls)
}

// failingStorage fails Save so the storage error path can be observed.
type failingStorage struct{}

func (failingStorage) Save(*multipart.FileHeader) (types.Upload, error) {
	return types.Upload{}, errors.New("disk full")
}
func (failingStorage) Read(types.Upload) ([]byte, error) { return nil, nil }
func (failingStorage) Remove(types.Upload) error         { return nil }

func TestConvertStorageFailure(t *testing.T) {
	conv := &fakeConverter{url: "u"}
	r := gin.New()
	r.POST("/convert", NewHandler(conv, failingStorage{}, nil).Convert)

	body, ct := newMultipart(t,
		map[string]string{FieldTargetFormat: "pdf"},
		&formFile{field: FieldFile, name: "report.docx", content: []byte("x")},
	)
	w, got := do(t, r, body, ct)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, MsgFailed, got["message"])
	assert.Equal(t, "disk full", got["error"])
	assert.Empty(t, conv.calls)
}
