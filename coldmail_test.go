package coldmail_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail"
	"github.com/sensiq/coldmail/pkg/logger"
)

func newService(t *testing.T) http.Handler {
	t.Helper()

	assetsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "logo.png"), []byte("\x89PNG"), 0o600))

	environ := baseEnv()
	environ["UPLOAD_DIR"] = t.TempDir()
	environ["ASSETS_DIR"] = assetsDir

	cfg, err := coldmail.LoadFrom(environ)
	require.NoError(t, err)

	svc, err := coldmail.New(context.Background(), cfg, logger.NewNope())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	return svc.Handler()
}

func get(t *testing.T, h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestService_Health(t *testing.T) {
	t.Parallel()

	h := newService(t)

	rec := get(t, h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestService_Routes(t *testing.T) {
	t.Parallel()

	h := newService(t)

	t.Run("unknown job", func(t *testing.T) {
		rec := get(t, h, http.MethodGet, "/api/job-status/missing", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "not_found", body["status"])
	})

	t.Run("journal disabled", func(t *testing.T) {
		rec := get(t, h, http.MethodGet, "/api/job-deliveries/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("assets", func(t *testing.T) {
		rec := get(t, h, http.MethodGet, "/assets/logo.png", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

		rec = get(t, h, http.MethodGet, "/assets/SN10.jpg", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("request id", func(t *testing.T) {
		rec := get(t, h, http.MethodGet, "/api/job-status/missing", nil)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		rec := get(t, h, http.MethodOptions, "/api/preview-email", http.Header{
			"Origin":                        {"http://localhost:5173"},
			"Access-Control-Request-Method": {http.MethodPost},
		})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("cors unknown origin", func(t *testing.T) {
		rec := get(t, h, http.MethodGet, "/health/live", http.Header{"Origin": {"https://evil.example"}})
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestNewMailer_UnknownTransport(t *testing.T) {
	t.Parallel()

	cfg, err := coldmail.LoadFrom(baseEnv())
	require.NoError(t, err)
	cfg.MailTransport = "fax"

	_, err = coldmail.NewMailer(cfg)
	require.ErrorIs(t, err, coldmail.ErrConfig)
}

func TestNewStorage_Local(t *testing.T) {
	t.Parallel()

	cfg, err := coldmail.LoadFrom(baseEnv())
	require.NoError(t, err)
	cfg.UploadDir = t.TempDir()

	store, err := coldmail.NewStorage(cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
}
