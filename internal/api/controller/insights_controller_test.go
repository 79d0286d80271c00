package controller

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bassista/go_quill/internal/ai"
	"github.com/bassista/go_quill/internal/model"
	"github.com/bassista/go_quill/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSuggester struct {
	suggestions []model.Suggestion
	suggestErr  error
	text        string
	generateErr error
	block       bool

	gotQuery string
}

func (f *fakeSuggester) Suggest(ctx context.Context, query string, _ []model.SearchHit) ([]model.Suggestion, error) {
	f.gotQuery = query
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.suggestions, f.suggestErr
}

func (f *fakeSuggester) Generate(context.Context, string) (string, error) {
	return f.text, f.generateErr
}

func newInsightsRouter(db *repository.DB, s ai.Suggester, timeout time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ic := NewInsightsController(db, s, nil, timeout)
	r := gin.New()
	api := r.Group("/api")
	api.POST("/post-views", ic.RecordView)
	api.POST("/ai/search", ic.SearchPosts)
	api.POST("/ai/search-by-type", ic.SearchByType)
	api.POST("/ai/generate", ic.Generate)
	api.GET("/dashboard/stats", ic.DashboardStats)
	api.GET("/notifications", ic.AdminNotifications)
	return r
}

func TestInsightsController_RecordView(t *testing.T) {
	db := openDB(t)
	seedBlog(t, db)
	r := newInsightsRouter(db, nil, 0)

	for want := int64(1); want <= 2; want++ {
		w := serve(r, http.MethodPost, "/api/post-views", `{"slug":"hello-world"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, decode[model.ViewResponse](t, w).Data.ViewsCount)
	}

	w := serve(r, http.MethodPost, "/api/post-views", `{"slug":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decode[any](t, w).Message)

	w = serve(r, http.MethodPost, "/api/post-views", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsightsController_Search(t *testing.T) {
	db := openDB(t)
	seedBlog(t, db)

	t.Run("hits with suggestions", func(t *testing.T) {
		s := &fakeSuggester{suggestions: []model.Suggestion{{Title: "Hello again", Reason: "follow-up"}}}
		w := serve(newInsightsRouter(db, s, time.Second), http.MethodPost, "/api/ai/search", `{"query":"  hello "}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[model.SearchResponse](t, w)
		assert.Equal(t, 1, env.Data.TotalResults)
		require.Len(t, env.Data.Results, 1)
		assert.Equal(t, "hello-world", env.Data.Results[0].Slug)
		assert.Equal(t, s.suggestions, env.Data.Suggestions)
		assert.Equal(t, "hello", s.gotQuery)
		assert.Equal(t, "Search completed successfully", env.Message)
	})

	t.Run("provider failure yields empty suggestions", func(t *testing.T) {
		s := &fakeSuggester{suggestErr: errors.New("boom")}
		w := serve(newInsightsRouter(db, s, time.Second), http.MethodPost, "/api/ai/search", `{"query":"hello"}`)
		require.Equal(t, http.StatusOK, w.Code)
		env := decode[model.SearchResponse](t, w)
		assert.NotNil(t, env.Data.Suggestions)
		assert.Empty(t, env.Data.Suggestions)
		assert.Len(t, env.Data.Results, 1)
	})

	t.Run("slow provider is cut off", func(t *testing.T) {
		s := &fakeSuggester{block: true}
		w := serve(newInsightsRouter(db, s, 20*time.Millisecond), http.MethodPost, "/api/ai/search", `{"query":"hello"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[model.SearchResponse](t, w).Data.Suggestions)
	})

	t.Run("blank query", func(t *testing.T) {
		w := serve(newInsightsRouter(db, nil, 0), http.MethodPost, "/api/ai/search", `{"query":"   "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Search query is required and must be a non-empty string", decode[any](t, w).Message)
	})
}

func TestInsightsController_SearchByType(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	typ, err := db.Types().Create(ctx, model.TypeInput{Name: "Tutorial"})
	require.NoError(t, err)
	_, err = db.Posts().Create(ctx, model.PostInput{
		Slug: "go-channels", Title: "Go channels", CoverImage: "c.png", Content: "chan", Excerpt: "chan", TypeID: &typ.ID,
	})
	require.NoError(t, err)
	_, err = db.Posts().Create(ctx, model.PostInput{
		Slug: "go-news", Title: "Go news", CoverImage: "n.png", Content: "news", Excerpt: "news",
	})
	require.NoError(t, err)

	s := &fakeSuggester{}
	r := newInsightsRouter(db, s, time.Second)

	w := serve(r, http.MethodPost, "/api/ai/search-by-type", `{"query":"go","typeId":"`+typ.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode[model.SearchResponse](t, w)
	assert.Equal(t, "Tutorial", env.Data.CategoryName)
	require.Len(t, env.Data.Results, 1)
	assert.Equal(t, "go-channels", env.Data.Results[0].Slug)
	assert.Equal(t, "go (Tutorial)", s.gotQuery)

	w = serve(r, http.MethodPost, "/api/ai/search-by-type", `{"query":"go"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Category ID (typeId) is required", decode[any](t, w).Message)

	w = serve(r, http.MethodPost, "/api/ai/search-by-type", `{"query":"go","typeId":"00000000-0000-0000-0000-000000000000"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Category not found", decode[any](t, w).Message)
}

func TestInsightsController_Generate(t *testing.T) {
	db := openDB(t)
	tests := []struct {
		name       string
		suggester  ai.Suggester
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"ok", &fakeSuggester{text: "Once upon a time"}, `{"prompt":"story"}`, http.StatusOK, "Text generated successfully"},
		{"missing prompt", &fakeSuggester{}, `{}`, http.StatusBadRequest, "Prompt is required"},
		{"disabled", ai.Noop{}, `{"prompt":"story"}`, http.StatusServiceUnavailable, "AI generation is not configured"},
		{"quota", &fakeSuggester{generateErr: ai.ErrQuotaExceeded}, `{"prompt":"story"}`, http.StatusTooManyRequests, ai.QuotaHint},
		{"provider error", &fakeSuggester{generateErr: errors.New("bad gateway")}, `{"prompt":"story"}`, http.StatusInternalServerError, "Failed to generate text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newInsightsRouter(db, tt.suggester, 0), http.MethodPost, "/api/ai/generate", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			env := decode[model.GenerateResponse](t, w)
			assert.Equal(t, tt.wantMsg, env.Message)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Once upon a time", env.Data.Text)
			}
		})
	}
}

func TestInsightsController_Dashboard(t *testing.T) {
	db := openDB(t)
	seedBlog(t, db)
	r := newInsightsRouter(db, nil, 0)

	w := serve(r, http.MethodGet, "/api/dashboard/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[model.DashboardStats](t, w).Data
	assert.Equal(t, int64(1), stats.Posts.Total)
	assert.Equal(t, int64(1), stats.Users.Total)

	w = serve(r, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "private, max-age=3600", w.Header().Get("Cache-Control"))
	feed := decode[[]model.AdminNotification](t, w).Data
	require.Len(t, feed, 2)
	types := []string{feed[0].Type, feed[1].Type}
	assert.ElementsMatch(t, []string{model.NotificationPostCreated, model.NotificationUserJoined}, types)
}
