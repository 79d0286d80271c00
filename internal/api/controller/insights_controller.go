package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bassista/go_quill/internal/ai"
	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/model"
	"github.com/bassista/go_quill/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type ViewRecorder interface {
	RecordView(ctx context.Context, slug string) (int64, error)
}

type PostSearcher interface {
	Posts(ctx context.Context, query, typeID string, limit int) ([]model.SearchHit, error)
}

type TypeReader interface {
	Get(ctx context.Context, id string) (model.Type, error)
}

type DashboardReader interface {
	Dashboard(ctx context.Context) (model.DashboardStats, error)
}

type NotificationReader interface {
	Recent(ctx context.Context) ([]model.AdminNotification, error)
}

// InsightsController serves views, AI search, text generation and the
// dashboard endpoints.
type InsightsController struct {
	Views         ViewRecorder
	Search        PostSearcher
	Types         TypeReader
	Stats         DashboardReader
	Notifications NotificationReader
	AI            ai.Suggester
	Validator     *validator.Validate
	// SuggestTimeout bounds the AI call of a search; the hits are returned
	// without suggestions once it elapses.
	SuggestTimeout time.Duration

	log *logrus.Entry
}

func NewInsightsController(db *repository.DB, suggester ai.Suggester, v *validator.Validate, suggestTimeout time.Duration) *InsightsController {
	if suggester == nil {
		suggester = ai.Noop{}
	}
	if v == nil {
		v = model.NewValidator()
	}
	return &InsightsController{
		Views:          db.Views(),
		Search:         db.Search(),
		Types:          db.Types(),
		Stats:          db.Stats(),
		Notifications:  db.Notifications(),
		AI:             suggester,
		Validator:      v,
		SuggestTimeout: suggestTimeout,
		log:            logger.WithComponent("insights-controller"),
	}
}

// RecordView handles POST /post-views.
func (ic *InsightsController) RecordView(c *gin.Context) {
	var req model.ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ic.Validator.Struct(req); err != nil {
		fail(c, http.StatusBadRequest, model.ValidationMessage(err))
		return
	}
	count, err := ic.Views.RecordView(c.Request.Context(), req.Slug)
	if err != nil {
		failStore(c, ic.log, err, "Post", "record view for")
		return
	}
	respond(c, http.StatusOK, model.ViewResponse{ViewsCount: count}, "")
}

// SearchPosts handles POST /ai/search.
func (ic *InsightsController) SearchPosts(c *gin.Context) {
	req, ok := ic.bindSearch(c)
	if !ok {
		return
	}
	hits, err := ic.Search.Posts(c.Request.Context(), req.Query, "", repository.DefaultSearchLimit)
	if err != nil {
		failStore(c, ic.log, err, "Search", "perform")
		return
	}
	respond(c, http.StatusOK, model.SearchResponse{
		Results:      hits,
		Suggestions:  ic.suggest(c.Request.Context(), req.Query, hits),
		TotalResults: len(hits),
	}, "Search completed successfully")
}

// SearchByType handles POST /ai/search-by-type.
func (ic *InsightsController) SearchByType(c *gin.Context) {
	req, ok := ic.bindSearch(c)
	if !ok {
		return
	}
	if strings.TrimSpace(req.TypeID) == "" {
		fail(c, http.StatusBadRequest, "Category ID (typeId) is required")
		return
	}
	typ, err := ic.Types.Get(c.Request.Context(), req.TypeID)
	if err != nil {
		failStore(c, ic.log, err, "Category", "perform search in")
		return
	}
	hits, err := ic.Search.Posts(c.Request.Context(), req.Query, typ.ID, repository.DefaultSearchLimit)
	if err != nil {
		failStore(c, ic.log, err, "Search", "perform")
		return
	}
	respond(c, http.StatusOK, model.SearchResponse{
		Results:      hits,
		Suggestions:  ic.suggest(c.Request.Context(), req.Query+" ("+typ.Name+")", hits),
		TotalResults: len(hits),
		CategoryName: typ.Name,
	}, "Category search completed successfully")
}

// Generate handles POST /ai/generate.
func (ic *InsightsController) Generate(c *gin.Context) {
	var req model.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		fail(c, http.StatusBadRequest, "Prompt is required")
		return
	}
	text, err := ic.AI.Generate(c.Request.Context(), req.Prompt)
	switch {
	case err == nil:
		respond(c, http.StatusOK, model.GenerateResponse{Text: text}, "Text generated successfully")
	case errors.Is(err, ai.ErrDisabled):
		fail(c, http.StatusServiceUnavailable, "AI generation is not configured")
	case ai.IsQuota(err):
		ic.log.Warnf("generate: %v", err)
		fail(c, http.StatusTooManyRequests, ai.QuotaHint)
	case c.Request.Context().Err() != nil:
		ic.log.Debugf("generate: request context done: %v", err)
	default:
		ic.log.Errorf("generate: %v", err)
		fail(c, http.StatusInternalServerError, "Failed to generate text")
	}
}

// DashboardStats handles GET /dashboard/stats.
func (ic *InsightsController) DashboardStats(c *gin.Context) {
	stats, err := ic.Stats.Dashboard(c.Request.Context())
	if err != nil {
		failStore(c, ic.log, err, "Dashboard stats", "fetch")
		return
	}
	respond(c, http.StatusOK, stats, "")
}

// AdminNotifications handles GET /notifications.
func (ic *InsightsController) AdminNotifications(c *gin.Context) {
	feed, err := ic.Notifications.Recent(c.Request.Context())
	if err != nil {
		failStore(c, ic.log, err, "Notifications", "fetch")
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	respond(c, http.StatusOK, feed, "Admin notifications fetched successfully")
}

func (ic *InsightsController) bindSearch(c *gin.Context) (model.SearchRequest, bool) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		fail(c, http.StatusBadRequest, "Search query is required and must be a non-empty string")
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	return req, true
}

// suggest never fails the search: provider errors yield no suggestions.
func (ic *InsightsController) suggest(ctx context.Context, query string, hits []model.SearchHit) []model.Suggestion {
	if ic.SuggestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ic.SuggestTimeout)
		defer cancel()
	}
	suggestions, err := ic.AI.Suggest(ctx, query, hits)
	if err != nil {
		ic.log.Warnf("ai suggestions for %q: %v", query, err)
		return []model.Suggestion{}
	}
	if suggestions == nil {
		return []model.Suggestion{}
	}
	return suggestions
}
