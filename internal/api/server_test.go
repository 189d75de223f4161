package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"H2E/internal/config"
	"H2E/internal/packager"
	"H2E/internal/settings"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	pkg := packager.New(settings.Default())
	return NewServer(pkg, filepath.Join(t.TempDir(), "settings.toml"))
}

func TestDefaultsEndpoint(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/defaults", nil)
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var cfg config.BuildConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	require.Equal(t, config.DefaultTitle, cfg.Title)
	require.Equal(t, config.DefaultWidth, cfg.Width)
	require.True(t, cfg.OneFile)
}

func TestBuildEndpointRejectsBadPayload(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/build", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuildEndpointRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	body := `{"sourcePath": "", "width": 1024, "height": 768}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/build", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "source path")
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/build/status", nil)
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"running":false`)
}

func TestSettingsRoundtrip(t *testing.T) {
	t.Parallel()

	s := testServer(t)

	body := `{"packagerTool":"go","rsrcTool":"rsrc","targetOS":"linux","targetArch":"amd64","defaultOutputDir":"/builds"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got settings.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "linux", got.TargetOS)
	require.Equal(t, "/builds", got.DefaultOutputDir)

	// Saved settings take effect on the packager.
	require.Equal(t, "linux", s.pkg.TargetOS)
}
