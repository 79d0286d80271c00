package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bassista/go_quill/internal/api/middleware"
	"github.com/bassista/go_quill/internal/app"
	"github.com/bassista/go_quill/internal/config"
	"github.com/bassista/go_quill/internal/repository"
	"github.com/bassista/go_quill/internal/settings"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(t *testing.T, origins string) *app.App {
	t.Helper()
	dir := t.TempDir()
	db, err := repository.Open(filepath.Join(dir, "quill.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	repo, err := settings.NewFileRepository(filepath.Join(dir, "settings.json"))
	if err != nil {
		t.Fatalf("settings repo: %v", err)
	}
	cfg := &config.Config{
		Server: config.ServerConfig{
			RequestTimeout:     time.Second,
			AIRequestTimeout:   time.Second,
			CORSAllowedOrigins: origins,
		},
		Data: config.DataConfig{PersistInterval: time.Hour},
	}
	a, err := app.New(cfg, db, repo, settings.NewStore(settings.Document{}), nil)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a
}

func TestNewEngine_HealthAndMetrics(t *testing.T) {
	r := newEngine(newTestApp(t, "*"), prometheus.NewRegistry(), middleware.HoneybadgerConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "UP") {
		t.Errorf("expected UP body, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `quill_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Errorf("expected the /health request to be counted, got:\n%s", w.Body.String())
	}
}

func TestNewEngine_CORSPreflight(t *testing.T) {
	r := newEngine(newTestApp(t, "https://blog.example"), prometheus.NewRegistry(), middleware.HoneybadgerConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "https://blog.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://blog.example" {
		t.Errorf("expected echoed origin, got %q", got)
	}
}

func TestNewEngine_UnknownRouteIsNotFound(t *testing.T) {
	r := newEngine(newTestApp(t, "*"), prometheus.NewRegistry(), middleware.HoneybadgerConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/container/foo/ready", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
