package route

import (
	"time"

	"github.com/bassista/go_quill/internal/api/controller"
	"github.com/bassista/go_quill/internal/api/middleware"
	"github.com/bassista/go_quill/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// NewInsightsRouter registers views, dashboard and AI routes. The AI routes
// run under timeout+aiTimeout; suggestions alone are capped at aiTimeout.
func NewInsightsRouter(timeout, aiTimeout time.Duration, group *gin.RouterGroup, appCtx *app.App, v *validator.Validate, requireAuth gin.HandlerFunc) {
	ic := controller.NewInsightsController(appCtx.DB, appCtx.AI, v, aiTimeout)

	std := group.Group("", middleware.RequestTimeout(timeout))
	std.POST("/post-views", ic.RecordView)
	std.GET("/dashboard/stats", requireAuth, ic.DashboardStats)
	std.GET("/notifications", requireAuth, ic.AdminNotifications)

	aiGroup := group.Group("/ai", middleware.RequestTimeout(timeout+aiTimeout))
	aiGroup.POST("/search", ic.SearchPosts)
	aiGroup.POST("/search-by-type", ic.SearchByType)
	aiGroup.POST("/generate", requireAuth, ic.Generate)
}
