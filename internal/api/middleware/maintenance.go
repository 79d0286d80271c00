package middleware

import (
	"net/http"

	"github.com/bassista/go_quill/internal/settings"
	"github.com/gin-gonic/gin"
)

// Maintenance answers 503 to anonymous callers while maintenance mode is on.
// It must run after Authenticate so signed-in users keep access.
func Maintenance(store settings.ReadOnlyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := store.Maintenance()
		if !m.Enabled {
			c.Next()
			return
		}
		if _, ok := IdentityFrom(c); ok {
			c.Next()
			return
		}
		c.Header("Retry-After", "300")
		abort(c, http.StatusServiceUnavailable, m.Message)
	}
}
