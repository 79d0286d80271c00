package route

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bassista/go_quill/internal/api/middleware"
	"github.com/bassista/go_quill/internal/app"
	"github.com/bassista/go_quill/internal/auth"
	"github.com/bassista/go_quill/internal/config"
	"github.com/bassista/go_quill/internal/repository"
	"github.com/bassista/go_quill/internal/settings"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "route-test-secret"

func newTestEngine(t *testing.T) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db, err := repository.Open(filepath.Join(dir, "quill.db"))
	require.NoError(t, err)
	repo, err := settings.NewFileRepository(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: time.Second, AIRequestTimeout: time.Second},
		Data:   config.DataConfig{PersistInterval: time.Hour},
		Auth:   config.AuthConfig{JWTSecret: secret},
	}
	appCtx, err := app.New(cfg, db, repo, settings.NewStore(settings.Document{}), nil)
	require.NoError(t, err)
	t.Cleanup(appCtx.Shutdown)

	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(middleware.NewHTTPMetrics(reg).Handler())
	SetupRoutes(r, appCtx, reg)
	return r, appCtx
}

func do(r http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes_WritesRequireAuth(t *testing.T) {
	r, _ := newTestEngine(t)
	tok, err := auth.Sign(secret, "", 1, "ADMIN", time.Hour)
	require.NoError(t, err)

	w := do(r, http.MethodPost, "/api/types", `{"name":"Tutorial"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/types", `{"name":"Tutorial"}`, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")

	w = do(r, http.MethodPost, "/api/types", `{"name":"Tutorial"}`, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/types", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Len(t, env.Data, 1)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/users", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/dashboard/stats", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/dashboard/stats", "", tok).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/settings", "", "").Code)
}

func TestSetupRoutes_MaintenanceBlocksAnonymousCallers(t *testing.T) {
	r, appCtx := newTestEngine(t)
	tok, err := auth.Sign(secret, "", 1, "ADMIN", time.Hour)
	require.NoError(t, err)

	w := do(r, http.MethodPut, "/api/settings/maintenance_mode", `{"value":{"enabled":true,"message":"Back soon"}}`, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, appCtx.Settings.Maintenance().Enabled)

	w = do(r, http.MethodGet, "/api/posts", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "300", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Back soon")

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/posts", "", tok).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", "").Code, "health stays outside /api")
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	r, _ := newTestEngine(t)
	do(r, http.MethodGet, "/api/labels", "", "")

	w := do(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `quill_http_requests_total{method="GET",route="/api/labels",status="200"} 1`)
}
