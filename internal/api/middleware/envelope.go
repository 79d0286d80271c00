package middleware

import (
	"github.com/bassista/go_quill/internal/model"
	"github.com/gin-gonic/gin"
)

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.Envelope[any]{Success: false, Message: message, Error: message})
}
