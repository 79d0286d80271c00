package route

import (
	"time"

	"github.com/bassista/go_quill/internal/api/controller"
	"github.com/bassista/go_quill/internal/api/middleware"
	"github.com/bassista/go_quill/internal/app"
	"github.com/bassista/go_quill/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// NewContentRouter registers the CRUD resources. Reads are public except
// users; every write goes through requireAuth.
func NewContentRouter(timeout time.Duration, group *gin.RouterGroup, appCtx *app.App, v *validator.Validate, requireAuth gin.HandlerFunc) {
	group.Use(middleware.RequestTimeout(timeout))
	db := appCtx.DB

	controller.NewCrudController[model.Type, model.TypeInput, model.TypePatch](db.Types(), v, "Type").RegisterCrudRoutes(group, "types", requireAuth)
	controller.NewCrudController[model.Label, model.LabelInput, model.LabelPatch](db.Labels(), v, "Label").RegisterCrudRoutes(group, "labels", requireAuth)
	controller.NewCrudController[model.Post, model.PostInput, model.PostPatch](db.Posts(), v, "Post", "typeId", "labelId").RegisterCrudRoutes(group, "posts", requireAuth)
	controller.NewCommentController(db.Comments(), v, appCtx.Settings).RegisterRoutes(group, requireAuth)

	users := group.Group("", requireAuth)
	controller.NewCrudController[model.User, model.UserInput, model.UserPatch](db.Users(), v, "User", "role").RegisterCrudRoutes(users, "users")
}
