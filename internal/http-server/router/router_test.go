package router

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"upload-converter/internal/http-server/handler/upload"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, logs io.Writer) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	logger := zerolog.New(logs)
	return SetupRouter(&Handler{
		UploadHandler: upload.NewUploadHandler(nil, &logger, 1<<20),
		UploadsDir:    dir,
		Logger:        &logger,
	}), dir
}

func TestHealth(t *testing.T) {
	logs := new(bytes.Buffer)
	r, _ := newTestRouter(t, logs)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Contains(t, logs.String(), `"path":"/api/health"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

func TestStaticUploads(t *testing.T) {
	logs := new(bytes.Buffer)
	r, dir := newTestRouter(t, logs)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2026", "10"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026", "10", "photo.webp"), []byte("RIFF"), 0o644))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/2026/10/photo.webp", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RIFF", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/2026/10/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Empty(t, logs.String())
}

func TestPanicIsRecovered(t *testing.T) {
	logs := new(bytes.Buffer)
	r, _ := newTestRouter(t, logs)

	// the handler has no usecase, so the status endpoint panics
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/converter", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "Panic recovered")
}
