package route

import (
	"time"

	"github.com/bassista/go_quill/internal/api/controller"
	"github.com/bassista/go_quill/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func NewSettingsRouter(timeout time.Duration, group *gin.RouterGroup, store controller.SettingsStore, v *validator.Validate, requireAuth gin.HandlerFunc) {
	group.Use(middleware.RequestTimeout(timeout))

	sc := controller.NewSettingsController(store, v)
	sc.RegisterRoutes(group, requireAuth)
}
