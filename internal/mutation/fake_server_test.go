package mutation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bassista/go_quill/internal/client"
	"github.com/bassista/go_quill/internal/model"
	"github.com/bassista/go_quill/internal/notify"
	"github.com/bassista/go_quill/internal/querycache"
)

// fakeTypes is an in-memory /api/types backend. Requests naming a gated key
// (a type name for POST, an id for PATCH and DELETE, or "id=name" for a
// PATCH renaming id) block until released; keys listed in failures answer
// with that status.
type fakeTypes struct {
	mu       sync.Mutex
	items    []model.Type
	nextID   int
	gates    map[string]chan struct{}
	failures map[string]int

	lists atomic.Int32
}

func newFakeTypes(items ...model.Type) *fakeTypes {
	return &fakeTypes{
		items:    items,
		nextID:   len(items) + 1,
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]int),
	}
}

func (f *fakeTypes) gate(key string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[key] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeTypes) fail(key string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = status
}

// wait blocks on the first gated key and returns the first configured
// failure status among keys.
func (f *fakeTypes) wait(keys ...string) int {
	f.mu.Lock()
	var ch chan struct{}
	for _, k := range keys {
		if g := f.gates[k]; g != nil {
			ch = g
			break
		}
	}
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		if status := f.failures[k]; status != 0 {
			return status
		}
	}
	return 0
}

func respond(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeTypes) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/types", func(w http.ResponseWriter, r *http.Request) {
		f.lists.Add(1)
		f.mu.Lock()
		items := append([]model.Type{}, f.items...)
		f.mu.Unlock()
		respond(w, http.StatusOK, map[string]any{"success": true, "data": items})
	})
	mux.HandleFunc("GET /api/types/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, t := range f.items {
			if t.ID == r.PathValue("id") {
				respond(w, http.StatusOK, map[string]any{"success": true, "data": t})
				return
			}
		}
		respond(w, http.StatusNotFound, map[string]any{"success": false, "message": "Type not found"})
	})
	mux.HandleFunc("POST /api/types", func(w http.ResponseWriter, r *http.Request) {
		var in model.TypeInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if status := f.wait(in.Name); status != 0 {
			respond(w, status, map[string]any{"success": false, "message": "database unavailable"})
			return
		}
		f.mu.Lock()
		created := model.Type{ID: strconv.Itoa(f.nextID), Name: in.Name, Description: in.Description}
		created.CreatedAt = time.Now()
		f.nextID++
		f.items = append([]model.Type{created}, f.items...)
		f.mu.Unlock()
		respond(w, http.StatusCreated, map[string]any{"success": true, "data": created, "message": "Type created successfully"})
	})
	mux.HandleFunc("PATCH /api/types/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var patch model.TypePatch
		_ = json.NewDecoder(r.Body).Decode(&patch)
		keys := []string{id}
		if patch.Name != nil {
			keys = []string{id + "=" + *patch.Name, id}
		}
		if status := f.wait(keys...); status != 0 {
			respond(w, status, map[string]any{"success": false, "message": "update rejected"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, t := range f.items {
			if t.ID == id {
				f.items[i] = patch.Apply(t)
				respond(w, http.StatusOK, map[string]any{"success": true, "data": f.items[i]})
				return
			}
		}
		respond(w, http.StatusNotFound, map[string]any{"success": false, "message": "Type not found"})
	})
	mux.HandleFunc("DELETE /api/types/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if status := f.wait(id); status != 0 {
			respond(w, status, map[string]any{"success": false, "message": "delete rejected"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, t := range f.items {
			if t.ID == id {
				f.items = append(f.items[:i:i], f.items[i+1:]...)
				respond(w, http.StatusOK, map[string]any{"success": true, "message": "Type deleted successfully"})
				return
			}
		}
		respond(w, http.StatusNotFound, map[string]any{"success": false, "message": "Type not found"})
	})
	return mux
}

type harness struct {
	fake  *fakeTypes
	cache *querycache.Cache
	co    *Coordinator
	rec   *notify.Recorder
	blog  *Blog
}

func newHarness(t *testing.T, items ...model.Type) *harness {
	t.Helper()
	fake := newFakeTypes(items...)
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cache := querycache.New(querycache.Options{StaleTime: time.Minute, GCTime: 10 * time.Minute})
	rec := &notify.Recorder{}
	co := NewCoordinator(cache, rec)
	h := &harness{
		fake:  fake,
		cache: cache,
		co:    co,
		rec:   rec,
		blog:  NewBlog(client.NewBlog(client.New(srv.URL, client.WithTimeout(5*time.Second))), co, NewAllocator()),
	}
	t.Cleanup(func() {
		co.Wait()
		cache.Wait()
	})
	return h
}

func (h *harness) cachedTypes(t *testing.T) []model.Type {
	t.Helper()
	items, _ := querycache.Get[[]model.Type](h.cache, h.blog.Types.Keys.List(model.ListParams{}))
	return items
}

func names(items []model.Type) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID+":"+it.Name)
	}
	return out
}
