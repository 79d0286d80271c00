package controller

import (
	"net/http"

	"github.com/bassista/go_quill/internal/api/middleware"
	"github.com/bassista/go_quill/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CommentGate reports whether new comments are accepted.
type CommentGate interface {
	CommentsEnabled() bool
}

// CommentController serves comments. Creating one requires the caller to be
// its author; admins may post on behalf of others.
type CommentController struct {
	*CrudController[model.Comment, model.CommentInput, model.CommentPatch]
	gate CommentGate
}

func NewCommentController(svc CrudService[model.Comment, model.CommentInput, model.CommentPatch], v *validator.Validate, gate CommentGate) *CommentController {
	return &CommentController{
		CrudController: NewCrudController(svc, v, "Comment", "postId"),
		gate:           gate,
	}
}

// RegisterRoutes registers the comment routes; write guards every mutation.
func (cc *CommentController) RegisterRoutes(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	rg.GET("/comments", cc.List)
	rg.GET("/comments/:id", cc.Get)
	rg.POST("/comments", chain(write, cc.Create)...)
	rg.PATCH("/comments/:id", chain(write, cc.Update)...)
	rg.DELETE("/comments/:id", chain(write, cc.Delete)...)
}

// Create handles POST /comments.
func (cc *CommentController) Create(c *gin.Context) {
	var in model.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if cc.gate != nil && !cc.gate.CommentsEnabled() {
		fail(c, http.StatusForbidden, "Comments are disabled")
		return
	}
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	switch {
	case in.AuthorID == nil:
		uid := id.UserID
		in.AuthorID = &uid
	case *in.AuthorID != id.UserID && id.Role != string(model.RoleAdmin):
		fail(c, http.StatusForbidden, "You can only comment as yourself")
		return
	}
	cc.Insert(c, in)
}
