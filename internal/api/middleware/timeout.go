package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/gin-gonic/gin"
)

// RequestTimeout bounds the request context by d. Handlers and the stores
// they call must observe ctx.Done(); nothing is interrupted forcibly. A
// handler that ran out of time without writing gets a 504 envelope.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	log := logger.WithComponent("timeout")

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		log.Warnf("%s %s exceeded %v", c.Request.Method, c.FullPath(), d)
		if !c.Writer.Written() {
			abort(c, http.StatusGatewayTimeout, "request timeout")
		}
	}
}
