package controller

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/bassista/go_quill/internal/settings"
	"github.com/gin-gonic/gin"
)

func newSettingsRouter(store *settings.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewSettingsController(store, nil).RegisterRoutes(r.Group("/api"))
	return r
}

func TestSettingsController_SettingLifecycle(t *testing.T) {
	store := settings.NewStore(settings.Document{})
	r := newSettingsRouter(store)

	w := serve(r, http.MethodPut, "/api/settings/site_title", `{"value":"My blog","category":"appearance"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	saved := decode[settings.Setting](t, w).Data
	if saved.Key != "site_title" || string(saved.Value) != `"My blog"` {
		t.Errorf("unexpected saved setting: %+v", saved)
	}
	if saved.IsActive == nil || !*saved.IsActive {
		t.Errorf("expected setting to default to active")
	}
	if !store.IsDirty() {
		t.Errorf("expected store to be dirty after upsert")
	}

	serve(r, http.MethodPut, "/api/settings/comments_enabled", `{"value":false}`)

	w = serve(r, http.MethodGet, "/api/settings?category=appearance", "")
	list := decode[[]settings.Setting](t, w).Data
	if len(list) != 1 || list[0].Key != "site_title" {
		t.Errorf("expected only the appearance setting, got %+v", list)
	}
	if store.CommentsEnabled() {
		t.Errorf("expected comments to be disabled by the new setting")
	}

	w = serve(r, http.MethodGet, "/api/settings/site_title", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 on get, got %d", w.Code)
	}

	w = serve(r, http.MethodDelete, "/api/settings/site_title", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", w.Code)
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if w := serve(r, method, "/api/settings/site_title", ""); w.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", method, w.Code)
		}
	}
}

func TestSettingsController_PutRejectsMissingValue(t *testing.T) {
	store := settings.NewStore(settings.Document{})
	w := serve(newSettingsRouter(store), http.MethodPut, "/api/settings/x", `{"category":"general"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if store.IsDirty() {
		t.Errorf("rejected body must not touch the store")
	}
}

func TestSettingsController_Shortcuts(t *testing.T) {
	store := settings.NewStore(settings.Document{})
	r := newSettingsRouter(store)

	w := serve(r, http.MethodPost, "/api/shortcuts", `{"title":"Posts","url":"https://blog.example/admin/posts","order":2}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[settings.Shortcut](t, w).Data
	if created.ID == "" {
		t.Fatalf("expected an assigned id")
	}
	serve(r, http.MethodPost, "/api/shortcuts", `{"title":"Home","url":"https://blog.example/","order":1}`)

	if w := serve(r, http.MethodPost, "/api/shortcuts", `{"title":"Bad","url":"not a url"}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid url, got %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/api/shortcuts", "")
	list := decode[[]settings.Shortcut](t, w).Data
	if len(list) != 2 || list[0].Title != "Home" {
		t.Errorf("expected shortcuts ordered by order, got %+v", list)
	}

	w = serve(r, http.MethodPatch, "/api/shortcuts/"+created.ID, `{"title":"All posts","icon":"list"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on patch, got %d", w.Code)
	}
	updated := decode[settings.Shortcut](t, w).Data
	if updated.Title != "All posts" || updated.Icon == nil || *updated.Icon != "list" {
		t.Errorf("unexpected patched shortcut: %+v", updated)
	}

	if w := serve(r, http.MethodDelete, "/api/shortcuts/"+created.ID, ""); w.Code != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", w.Code)
	}
	w = serve(r, http.MethodPatch, "/api/shortcuts/"+created.ID, `{"title":"x"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
	var env struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if env.Message != "Shortcut not found" {
		t.Errorf("unexpected message %q", env.Message)
	}
}
