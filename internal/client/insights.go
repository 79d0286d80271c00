package client

import (
	"context"
	"net/http"
	"time"

	"github.com/bassista/go_quill/internal/model"
)

// ViewRecorder reports post visits. It is best effort: a failed report is
// retried once and then dropped.
type ViewRecorder struct {
	http    *HTTP
	backoff time.Duration
}

func NewViewRecorder(h *HTTP) *ViewRecorder {
	return &ViewRecorder{http: h, backoff: 200 * time.Millisecond}
}

// Record returns the new view count, or zero and false when the report was
// dropped. It never returns an error.
func (v *ViewRecorder) Record(ctx context.Context, slug string) (int64, bool) {
	var out model.ViewResponse
	req := model.ViewRequest{Slug: slug}
	if err := v.http.Check(req); err != nil {
		v.http.log.WithField("slug", slug).Debugf("view not recorded: %v", err)
		return 0, false
	}

	err := v.http.Do(ctx, http.MethodPost, "/api/post-views", nil, req, &out)
	if err == nil {
		return out.ViewsCount, true
	}
	if KindOf(err) == KindValidation || KindOf(err) == KindNotFound {
		v.http.log.WithField("slug", slug).Debugf("view not recorded: %v", err)
		return 0, false
	}

	select {
	case <-ctx.Done():
		return 0, false
	case <-time.After(v.backoff):
	}
	if err := v.http.Do(ctx, http.MethodPost, "/api/post-views", nil, req, &out); err != nil {
		v.http.log.WithField("slug", slug).Debugf("view dropped after retry: %v", err)
		return 0, false
	}
	return out.ViewsCount, true
}

// Insights wraps the search, AI and stats endpoints.
type Insights struct {
	http *HTTP
}

func (i *Insights) Search(ctx context.Context, query string) (model.SearchResponse, error) {
	var out model.SearchResponse
	req := model.SearchRequest{Query: query}
	if err := i.http.Check(req); err != nil {
		return out, err
	}
	err := i.http.Do(ctx, http.MethodPost, "/api/ai/search", nil, req, &out)
	return out, err
}

func (i *Insights) SearchByType(ctx context.Context, query, typeID string) (model.SearchResponse, error) {
	var out model.SearchResponse
	req := model.SearchRequest{Query: query, TypeID: typeID}
	if err := i.http.Check(req); err != nil {
		return out, err
	}
	if typeID == "" {
		return out, &Error{Kind: KindValidation, Message: "typeId is required"}
	}
	err := i.http.Do(ctx, http.MethodPost, "/api/ai/search-by-type", nil, req, &out)
	return out, err
}

func (i *Insights) Generate(ctx context.Context, prompt string) (string, error) {
	var out model.GenerateResponse
	req := model.GenerateRequest{Prompt: prompt}
	if err := i.http.Check(req); err != nil {
		return "", err
	}
	err := i.http.Do(ctx, http.MethodPost, "/api/ai/generate", nil, req, &out)
	return out.Text, err
}

func (i *Insights) Stats(ctx context.Context) (model.DashboardStats, error) {
	var out model.DashboardStats
	err := i.http.Do(ctx, http.MethodGet, "/api/dashboard/stats", nil, nil, &out)
	return out, err
}

func (i *Insights) Notifications(ctx context.Context) ([]model.AdminNotification, error) {
	var out []model.AdminNotification
	err := i.http.Do(ctx, http.MethodGet, "/api/notifications", nil, nil, &out)
	return out, err
}
