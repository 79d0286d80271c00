package route

import (
	"github.com/bassista/go_quill/internal/api/controller"
	"github.com/bassista/go_quill/internal/api/middleware"
	"github.com/bassista/go_quill/internal/app"
	"github.com/bassista/go_quill/internal/auth"
	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers /health, /metrics and the /api tree. gatherer may be
// nil, in which case /metrics is not served.
func SetupRoutes(r *gin.Engine, appCtx *app.App, gatherer prometheus.Gatherer) {
	r.GET("/health", controller.Health(appCtx.DB))
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	cfg := appCtx.Config
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if !verifier.Enabled() {
		logger.WithComponent("route").Warn("no JWT secret configured: every authenticated route answers 401")
	}

	api := r.Group("/api", middleware.Authenticate(verifier), middleware.Maintenance(appCtx.Settings))
	requireAuth := middleware.RequireAuth()
	v := model.NewValidator()

	api.GET("/config", controller.NewConfigurationController(cfg, appCtx.Settings, appCtx.AI).GetConfiguration)

	NewContentRouter(cfg.Server.RequestTimeout, api.Group(""), appCtx, v, requireAuth)
	NewSettingsRouter(cfg.Server.RequestTimeout, api.Group(""), appCtx.Settings, v, requireAuth)
	// AI calls get their own budget on top of the database work.
	NewInsightsRouter(cfg.Server.RequestTimeout, cfg.Server.AIRequestTimeout, api.Group(""), appCtx, v, requireAuth)
}
